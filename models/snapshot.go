package models

// Snapshot — полное сериализуемое состояние одного аккаунта.
// Аккаунты не разделяют снимки, поэтому конкуренция возможна только
// между инвокациями одного и того же аккаунта. Снимок читается и
// записывается целиком: частичные записи по полям запрещены.
type Snapshot struct {
	Ledgers   []LedgerEntry  `json:"ledgers"`
	Queue     []Post         `json:"queue"`
	Followers []string       `json:"followers"`
	Log       []ActionRecord `json:"log"`
}

// NewSnapshot создаёт пустой снимок для первого запуска аккаунта.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Ledgers:   []LedgerEntry{},
		Queue:     []Post{},
		Followers: []string{},
		Log:       []ActionRecord{},
	}
}

// FindPost возвращает пост очереди по идентификатору или nil.
func (s *Snapshot) FindPost(id string) *Post {
	for i := range s.Queue {
		if s.Queue[i].ID == id {
			return &s.Queue[i]
		}
	}
	return nil
}
