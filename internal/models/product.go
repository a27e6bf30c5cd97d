package models

import "time"

// Product — запись демо-каталога, созданная из формы с обложкой.
type Product struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Price     float64      `json:"price"`
	Photo     *StoredPhoto `json:"photo,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

// StoredPhoto описывает файл, перенесённый из временного каталога в постоянный.
type StoredPhoto struct {
	Name             string `json:"name"`
	OriginalFilename string `json:"original_filename"`
	ContentType      string `json:"content_type"`
	Size             int64  `json:"size"`
	URL              string `json:"url"`
}

// Clone возвращает копию, не разделяющую указатели.
func (p Product) Clone() Product {
	out := p
	if p.Photo != nil {
		photo := *p.Photo
		out.Photo = &photo
	}
	return out
}
