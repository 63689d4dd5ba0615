package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"smm_go/models"
)

// DirMediaFinder ищет медиафайлы в каталоге. Совпадением считается имя
// файла вида "<postID>.<ext>" или "<postID>_<n>.<ext>" — строго, с
// учётом регистра. Проверку размера выполняет очередь.
type DirMediaFinder struct {
	Dir string
}

func (d *DirMediaFinder) FindMedia(postID string) ([]models.MediaAsset, error) {
	entries, err := os.ReadDir(d.Dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("чтение каталога медиа: %w", err)
	}

	var assets []models.MediaAsset
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		base := strings.TrimSuffix(name, ext)
		if base != postID && !strings.HasPrefix(base, postID+"_") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		assets = append(assets, models.MediaAsset{
			Ref:       filepath.Join(d.Dir, name),
			SizeBytes: info.Size(),
			Format:    strings.TrimPrefix(ext, "."),
		})
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i].Ref < assets[j].Ref })
	return assets, nil
}
