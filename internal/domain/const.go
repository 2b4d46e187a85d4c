package domain

const (
	RequesterIdCtxKey      = "mk-requesterId"
	RequesterSessionCtxKey = "mk-requesterSession"
)
