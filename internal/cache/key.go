package cache

import (
	"fmt"

	"github.com/iudanet/entrypack/internal/models"
)

// Key однозначно адресует запись в кэше: логический тип данных плюс
// идентификатор (обычно userId, для дочерних группировок "userId:suffix").
// Пространство типов открытое: фасад может кэшировать группы, которых нет
// в статическом перечислении.
type Key struct {
	Type models.DataType
	Ref  string
}

// NewKey validates both parts so a malformed key is an early error rather
// than a silent permanent cache miss.
func NewKey(dataType models.DataType, ref string) (Key, error) {
	if dataType == "" {
		return Key{}, fmt.Errorf("cache key type cannot be empty")
	}
	if ref == "" {
		return Key{}, fmt.Errorf("cache key ref cannot be empty")
	}
	return Key{Type: dataType, Ref: ref}, nil
}

func (k Key) String() string {
	return string(k.Type) + ":" + k.Ref
}
