package models

// MediaAsset — внешний медиафайл, найденный по идентификатору поста.
// Очередь проверяет размер и формат, прежде чем доверять совпадению.
type MediaAsset struct {
	Ref       string `json:"ref"`
	SizeBytes int64  `json:"size_bytes"`
	Format    string `json:"format"`
}
