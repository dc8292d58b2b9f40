// Package storage превращает ссылки на фото талонов в адреса для скачивания
package storage

import (
	"net/url"
	"strings"

	"shift-tracker/internal/config"
)

// PhotoResolver строит публичные адреса объектов в бакете.
// Поддерживаются ссылки вида gs://bucket/path, относительный путь в бакете
// по умолчанию и уже готовые http(s) адреса, которые возвращаются как есть.
type PhotoResolver struct {
	bucket  string
	baseURL string
}

// NewPhotoResolver создает PhotoResolver
func NewPhotoResolver(cfg *config.StorageConfig) *PhotoResolver {
	return &PhotoResolver{
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
}

// ResolvePhotoURL возвращает адрес для отображения или пустую строку
func (r *PhotoResolver) ResolvePhotoURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}

	bucket, object := r.bucket, ref
	if rest, ok := strings.CutPrefix(ref, "gs://"); ok {
		var found bool
		bucket, object, found = strings.Cut(rest, "/")
		if !found {
			return ""
		}
	}

	object = strings.TrimLeft(object, "/")
	if bucket == "" || object == "" || r.baseURL == "" {
		return ""
	}

	return r.baseURL + "/" + url.PathEscape(bucket) + "/o/" + url.PathEscape(object) + "?alt=media"
}
