package repository_test

import (
	"time"

	"daily-streak/internal/model"
	"daily-streak/internal/repository"
)

type repositoryStore = repository.Store

func repositoryFilter(userID string, from, to time.Time, statuses ...model.TaskStatus) repository.TaskFilter {
	return repository.TaskFilter{UserID: userID, From: &from, To: &to, Statuses: statuses}
}
