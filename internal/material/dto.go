// AngelaMos | 2026
// dto.go

package material

import (
	"time"
)

type CreateMaterialRequest struct {
	Title       string `json:"title"       validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"max=2000"`
	FileURL     string `json:"fileUrl"     validate:"omitempty,url,max=2048"`
	VideoURL    string `json:"videoUrl"    validate:"omitempty,url,max=2048"`
}

type MaterialResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	FileURL     string    `json:"fileUrl,omitempty"`
	VideoURL    string    `json:"videoUrl,omitempty"`
	TeacherID   string    `json:"teacherId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type MaterialListResponse struct {
	Materials []MaterialResponse `json:"materials"`
}

func ToMaterialResponse(m *Material) MaterialResponse {
	return MaterialResponse{
		ID:          m.ID,
		Title:       m.Title,
		Description: m.Description,
		FileURL:     m.FileURL,
		VideoURL:    m.VideoURL,
		TeacherID:   m.TeacherID,
		CreatedAt:   m.CreatedAt,
	}
}

func ToMaterialListResponse(materials []Material) MaterialListResponse {
	responses := make([]MaterialResponse, 0, len(materials))
	for i := range materials {
		responses = append(responses, ToMaterialResponse(&materials[i]))
	}
	return MaterialListResponse{Materials: responses}
}
