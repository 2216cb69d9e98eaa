package domain

type CtxKey string

const (
	KeyEmployeeID CtxKey = "EmployeeID"
	KeyUserEmail  CtxKey = "Email"
	KeyUserRole   CtxKey = "Role"
)
