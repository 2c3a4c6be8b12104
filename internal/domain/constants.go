package domain

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

const (
	NotificationStatusActive   = "active"
	NotificationStatusInactive = "inactive"
)
