package handlers

type successResponse struct {
	Success bool `json:"success"`
}

type idResponse struct {
	Success bool  `json:"success"`
	ID      int64 `json:"id"`
}
