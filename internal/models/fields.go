package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ListSuffix помечает поля, значения которых накапливаются в список ("tags[]").
const ListSuffix = "[]"

// FieldValue — значение поля формы: строка, загруженный файл или список значений.
type FieldValue struct {
	Text   string
	Upload *UploadHandle
	Items  []FieldValue
}

// TextValue оборачивает строковое значение.
func TextValue(s string) FieldValue {
	return FieldValue{Text: s}
}

// UploadValue оборачивает загруженный файл.
func UploadValue(h *UploadHandle) FieldValue {
	return FieldValue{Upload: h}
}

// IsUpload сообщает, что значение является файлом.
func (v FieldValue) IsUpload() bool {
	return v.Upload != nil
}

// IsList сообщает, что значение накоплено из нескольких частей.
func (v FieldValue) IsList() bool {
	return v.Items != nil
}

// MarshalJSON кодирует строку как строку, файл как объект, список как массив.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch {
	case v.Items != nil:
		return json.Marshal(v.Items)
	case v.Upload != nil:
		return json.Marshal(v.Upload)
	default:
		return json.Marshal(v.Text)
	}
}

// FieldMap — упорядоченное отображение имени поля в значение.
// Порядок ключей — порядок первого появления. Повторное имя перезаписывает
// значение (last-wins), имена с суффиксом "[]" накапливаются в список.
type FieldMap struct {
	keys   []string
	values map[string]FieldValue
}

// NewFieldMap создаёт пустую карту полей.
func NewFieldMap() *FieldMap {
	return &FieldMap{values: map[string]FieldValue{}}
}

// Add добавляет значение с учётом политики повторов.
func (m *FieldMap) Add(name string, v FieldValue) {
	if strings.HasSuffix(name, ListSuffix) {
		m.appendItem(name, v)
		return
	}
	m.Set(name, v)
}

// Set записывает значение, сохраняя позицию ключа, если он уже был.
func (m *FieldMap) Set(name string, v FieldValue) {
	if _, ok := m.values[name]; !ok {
		m.keys = append(m.keys, name)
	}
	m.values[name] = v
}

func (m *FieldMap) appendItem(name string, v FieldValue) {
	cur, ok := m.values[name]
	if !ok {
		m.keys = append(m.keys, name)
	}
	cur.Items = append(cur.Items, v)
	m.values[name] = cur
}

// Get возвращает значение поля.
func (m *FieldMap) Get(name string) (FieldValue, bool) {
	v, ok := m.values[name]
	return v, ok
}

// Has сообщает, есть ли ключ в карте.
func (m *FieldMap) Has(name string) bool {
	_, ok := m.values[name]
	return ok
}

// Value возвращает строковое значение поля или пустую строку.
func (m *FieldMap) Value(name string) string {
	return m.values[name].Text
}

// Upload возвращает файл поля, если поле файловое.
func (m *FieldMap) Upload(name string) (*UploadHandle, bool) {
	v, ok := m.values[name]
	if !ok || v.Upload == nil {
		return nil, false
	}
	return v.Upload, true
}

// Uploads возвращает все файлы карты, включая элементы списков, в порядке ключей.
func (m *FieldMap) Uploads() []*UploadHandle {
	var out []*UploadHandle
	for _, k := range m.keys {
		v := m.values[k]
		if v.Upload != nil {
			out = append(out, v.Upload)
		}
		for _, item := range v.Items {
			if item.Upload != nil {
				out = append(out, item.Upload)
			}
		}
	}
	return out
}

// Keys возвращает копию ключей в порядке первого появления.
func (m *FieldMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len возвращает количество ключей.
func (m *FieldMap) Len() int {
	return len(m.keys)
}

// MarshalJSON сохраняет порядок ключей.
func (m *FieldMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
