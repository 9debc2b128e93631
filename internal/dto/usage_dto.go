package dto

type TutorialStateRequest struct {
	Seen *bool `json:"seen" validate:"required"`
}

type TutorialStateResponse struct {
	Seen bool `json:"seen"`
}
