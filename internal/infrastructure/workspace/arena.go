// Package workspace выдаёт каждому запросу собственный каталог временных файлов.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Arena временный каталог одного запроса. Всё, что в нём создано, удаляется в Close.
type Arena struct {
	dir string
}

// New создаёт каталог вида <root>/<prefix>-<uuid>. Пустой root — системный временный каталог.
func New(root, prefix string) (*Arena, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create temp root: %w", err)
	}
	dir := filepath.Join(root, fmt.Sprintf("%s-%s", prefix, uuid.NewString()))
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create arena: %w", err)
	}
	return &Arena{dir: dir}, nil
}

// Dir путь к каталогу.
func (a *Arena) Dir() string {
	return a.dir
}

// Path путь к файлу name внутри каталога. Файл не создаётся.
func (a *Arena) Path(name string) string {
	return filepath.Join(a.dir, filepath.Base(name))
}

// Close удаляет каталог со всем содержимым. Повторный вызов безопасен.
func (a *Arena) Close() error {
	if a.dir == "" {
		return nil
	}
	err := os.RemoveAll(a.dir)
	a.dir = ""
	return err
}
