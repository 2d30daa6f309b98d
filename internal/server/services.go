package server

import (
	"github.com/openmined/notesync/internal/server/auth"
	"github.com/openmined/notesync/internal/server/taskstore"
)

type Services struct {
	Auth  *auth.AuthService
	Tasks *taskstore.TaskStore
}

func NewServices(config *Config) *Services {
	return &Services{
		Auth:  auth.NewAuthService(&config.Auth),
		Tasks: taskstore.New(),
	}
}
