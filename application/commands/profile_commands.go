package commands

import "bettersaved/pkg/utils"

// EnsureProfileCommand creates the profile of a chat user or refreshes its name
type EnsureProfileCommand struct {
	TelegramID int64  `json:"telegram_id" validate:"required"`
	Name       string `json:"name" validate:"max=256"`
	Language   string `json:"language" validate:"omitempty,min=2,max=16"`
}

// Validate validates the command
func (c EnsureProfileCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ConnectStorageCommand stores a storage credential obtained out of band
type ConnectStorageCommand struct {
	UserID     string `json:"user_id" validate:"required,startswith=user_"`
	Credential string `json:"credential" validate:"required,json"`
}

// Validate validates the command
func (c ConnectStorageCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// RepairResourcesCommand drops cached resource handles and reruns recovery
type RepairResourcesCommand struct {
	UserID string `json:"user_id" validate:"required,startswith=user_"`
}

// Validate validates the command
func (c RepairResourcesCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DisconnectStorageCommand removes the storage credential
type DisconnectStorageCommand struct {
	UserID string `json:"user_id" validate:"required,startswith=user_"`
}

// Validate validates the command
func (c DisconnectStorageCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// DeleteProfileCommand removes every stored trace of a user
type DeleteProfileCommand struct {
	UserID string `json:"user_id" validate:"required,startswith=user_"`
}

// Validate validates the command
func (c DeleteProfileCommand) Validate() error {
	return utils.ValidateStruct(c)
}
