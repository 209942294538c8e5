package service

import (
	"skillforge_backend/internal/model"
	"skillforge_backend/internal/repository"
)

type NotificationService struct {
	Repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{Repo: repo}
}

func (s *NotificationService) List(userID uint, unreadOnly bool, page, limit int) ([]model.Notification, int64, error) {
	return s.Repo.ListByUser(userID, unreadOnly, page, limit)
}

func (s *NotificationService) MarkRead(userID uint, id string) error {
	return s.Repo.MarkRead(userID, id)
}
