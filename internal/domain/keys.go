package domain

type CtxKey string

const (
	KeyUserID       CtxKey = "UserID"
	KeyUserEmail    CtxKey = "Email"
	KeyUserRole     CtxKey = "Role"
	KeyOrganization CtxKey = "Organization"
	KeyRequestID    CtxKey = "RequestID"
)
