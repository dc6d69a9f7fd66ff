// Package article provides HTTP handlers for reading ingested articles.
package article

import (
	"time"

	"newsletter-curator/internal/domain/entity"
)

// TopicDTO is an interest matched at ingestion time.
type TopicDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DTO represents the JSON structure for article data transfer.
type DTO struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	URL           string     `json:"url"`
	Source        string     `json:"source"`
	Summary       string     `json:"summary"`
	PublishedDate time.Time  `json:"published_date"`
	Topics        []TopicDTO `json:"topics"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toDTO(a *entity.Article) DTO {
	topics := make([]TopicDTO, 0, len(a.Topics))
	for _, t := range a.Topics {
		topics = append(topics, TopicDTO{ID: t.ID, Name: t.Name})
	}
	return DTO{
		ID:            a.ID,
		Title:         a.Title,
		URL:           a.URL,
		Source:        a.Source,
		Summary:       a.Summary,
		PublishedDate: a.PublishedDate,
		Topics:        topics,
		CreatedAt:     a.CreatedAt,
	}
}
