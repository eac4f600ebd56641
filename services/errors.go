package services

import "errors"

// Errors shared across services and the HTTP mapping layer. Each abort
// path of the enrollment workflow has its own sentinel so handlers can
// produce a distinct, actionable message.
var (
	// Enrollment workflow taxonomy.
	ErrAuthRequired          = errors.New("authentication required")
	ErrAlreadyRegistered     = errors.New("already registered for this tournament")
	ErrTournamentUnavailable = errors.New("tournament is not open for registration")
	ErrTournamentFull        = errors.New("tournament is full")
	ErrInsufficientBalance   = errors.New("wallet balance is below the entry fee")
	ErrJoinFailed            = errors.New("failed to join tournament")
	// Leaving forfeits the entry fee, so the caller must confirm.
	ErrConfirmationRequired = errors.New("leaving requires confirmation: the entry fee is not refunded")

	// Fetch pipeline taxonomy.
	ErrConnectionTimeout = errors.New("request to the data store timed out")
	ErrDatabaseError     = errors.New("data store request failed")

	// Not-found variants (more context than a generic not-found).
	ErrUserNotFound         = errors.New("user not found")
	ErrTournamentNotFound   = errors.New("tournament not found")
	ErrPaymentOrderNotFound = errors.New("payment order not found")

	// Validation and business rules.
	ErrTournamentNameRequired            = errors.New("tournament name is required")
	ErrTournamentGameRequired            = errors.New("tournament game is required")
	ErrTournamentInvalidCapacity         = errors.New("tournament max players must be positive")
	ErrTournamentInvalidFee              = errors.New("tournament entry fee must not be negative")
	ErrTournamentInvalidPrizePool        = errors.New("tournament prize pool must not be negative")
	ErrTournamentInvalidStatus           = errors.New("invalid tournament status provided")
	ErrTournamentInvalidStatusTransition = errors.New("invalid tournament status transition")
	ErrTopUpInvalidAmount                = errors.New("top-up amount must be positive")
	ErrFullNameRequired                  = errors.New("full name is required")

	// Conflicts.
	ErrTournamentNameConflict = errors.New("tournament name already exists")

	// Authentication and authorization.
	ErrAuthInvalidCredentials = errors.New("invalid email or password")
	ErrAuthEmailTaken         = errors.New("email is already taken")
	ErrPasswordTooShort       = errors.New("password is too short")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")

	// Payments.
	ErrPaymentNotCompleted = errors.New("payment has not completed")
	ErrPaymentFailed       = errors.New("payment failed or expired")
	ErrOrderAlreadySettled = errors.New("payment order already settled")
)
