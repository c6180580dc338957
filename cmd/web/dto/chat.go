package dto

type ChatRequestDTO struct {
	Message string `json:"message" example:"¿Cuál es el horario de soporte?"`
}

type ChatResponseDTO struct {
	Response string `json:"response"`
}

// ErrorResponseDTO is the shared error response shape.
type ErrorResponseDTO struct {
	Error string `json:"error" example:"empty_message"`
}

type MessageResponseDTO struct {
	Message string `json:"message" example:"history cleared"`
}
