package entity

import (
	"fmt"
	"sort"
)

// Имена плагинов-детекторов из стандартного каталога.
const (
	PluginCigarette = "cigarette_detector"
	PluginNude      = "nude_detector"
	PluginExtremism = "extremism_detector"
	PluginBadWords  = "bad_words_detector"
)

// CategoryBadWords категория нецензурной речи в аудиодорожке.
const CategoryBadWords = "bad_words"

// NudeNetLabels классы детектора наготы.
var NudeNetLabels = []string{
	"FEMALE_GENITALIA_COVERED",
	"FACE_FEMALE",
	"BUTTOCKS_EXPOSED",
	"FEMALE_BREAST_EXPOSED",
	"FEMALE_GENITALIA_EXPOSED",
	"MALE_BREAST_EXPOSED",
	"ANUS_EXPOSED",
	"FEET_EXPOSED",
	"BELLY_COVERED",
	"FEET_COVERED",
	"ARMPITS_COVERED",
	"ARMPITS_EXPOSED",
	"FACE_MALE",
	"BELLY_EXPOSED",
	"MALE_GENITALIA_EXPOSED",
	"ANUS_COVERED",
	"FEMALE_BREAST_COVERED",
	"BUTTOCKS_COVERED",
}

// Catalog статическое отображение имени плагина в набор категорий, которые он умеет находить.
type Catalog map[string][]string

// DefaultCatalog возвращает каталог стандартных плагинов.
func DefaultCatalog() Catalog {
	return Catalog{
		PluginCigarette: {"cigarette"},
		PluginNude:      append([]string(nil), NudeNetLabels...),
		PluginExtremism: {"lgbt", "svastika"},
		PluginBadWords:  {CategoryBadWords},
	}
}

// Plugins возвращает имена плагинов каталога по алфавиту.
func (c Catalog) Plugins() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Categories возвращает все категории каталога.
func (c Catalog) Categories() []string {
	var out []string
	for _, name := range c.Plugins() {
		out = append(out, c[name]...)
	}
	return out
}

// PluginFor возвращает плагин, который умеет находить категорию.
func (c Catalog) PluginFor(category string) (string, bool) {
	for _, name := range c.Plugins() {
		for _, cls := range c[name] {
			if cls == category {
				return name, true
			}
		}
	}
	return "", false
}

// Resolve сопоставляет чёрный список минимальному набору плагинов.
// Пустой список означает «всё, что есть в каталоге»: возвращаются все плагины и все категории.
func (c Catalog) Resolve(blacklist Blacklist) ([]string, Blacklist, error) {
	if blacklist.Empty() {
		return c.Plugins(), NewBlacklist(c.Categories()...), nil
	}

	selected := make(map[string]struct{})
	for _, label := range blacklist.Labels() {
		plugin, ok := c.PluginFor(label)
		if !ok {
			return nil, Blacklist{}, NewError(KindConfiguration, "resolve blacklist",
				fmt.Errorf("%w: %q", ErrUnknownCategory, label))
		}
		selected[plugin] = struct{}{}
	}

	plugins := make([]string, 0, len(selected))
	for name := range selected {
		plugins = append(plugins, name)
	}
	sort.Strings(plugins)
	return plugins, blacklist, nil
}
