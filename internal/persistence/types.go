package persistence

import (
	"time"

	"github.com/subloc/subloc/internal/service"
	"github.com/subloc/subloc/internal/subtitle"
)

type BatchCheckpoint struct {
	RunID           string
	FileID          string
	BatchStart      int
	BatchEnd        int
	TranslatedLines []string
	UpdatedAt       time.Time
}

// fileRow is the stored shape of a run's file. Unlike the API shape it
// carries the spool path; document contents live in the spool, not here.
type fileRow struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Format     string `json:"format,omitempty"`
	SourceLang string `json:"source_lang,omitempty"`
	WordCount  int    `json:"word_count,omitempty"`
	Error      string `json:"error,omitempty"`
	Path       string `json:"path,omitempty"`
}

func toFileRows(items []*service.FileItem) []fileRow {
	rows := make([]fileRow, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		rows = append(rows, fileRow{
			ID:         item.ID,
			Name:       item.Name,
			Status:     string(item.Status),
			Format:     string(item.Format),
			SourceLang: item.SourceLang,
			WordCount:  item.WordCount,
			Error:      item.Error,
			Path:       item.Path,
		})
	}
	return rows
}

func fromFileRows(rows []fileRow) []*service.FileItem {
	items := make([]*service.FileItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, &service.FileItem{
			ID:         row.ID,
			Name:       row.Name,
			Status:     service.FileStatus(row.Status),
			Format:     subtitle.Format(row.Format),
			SourceLang: row.SourceLang,
			WordCount:  row.WordCount,
			Error:      row.Error,
			Path:       row.Path,
		})
	}
	return items
}
