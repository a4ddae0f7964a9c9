package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/spherical-ai/spherical/libs/showroom/internal/domain"
	"github.com/spherical-ai/spherical/libs/showroom/internal/observability"
)

var contactEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ContactHandler accepts contact form submissions. There is no downstream
// integration; submissions are validated and logged.
type ContactHandler struct {
	logger *observability.Logger
}

// NewContactHandler creates a new contact handler.
func NewContactHandler(logger *observability.Logger) *ContactHandler {
	return &ContactHandler{logger: logger.WithComponent("contact_handler")}
}

// ContactRequestDTO is the contact form.
type ContactRequestDTO struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Message   string `json:"message"`
	VehicleID string `json:"vehicleId,omitempty"`
}

// Validate trims every field and checks the required ones.
func (c *ContactRequestDTO) Validate() error {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Message = strings.TrimSpace(c.Message)
	c.VehicleID = strings.TrimSpace(c.VehicleID)

	if c.Name == "" || c.Email == "" || c.Message == "" {
		return domain.ValidationError("name, email and message are required", nil)
	}
	if !contactEmail.MatchString(c.Email) {
		return domain.ValidationError("email address is not valid", nil)
	}
	return nil
}

// Submit handles POST /contact.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req ContactRequestDTO
	if err := decodeJSON(w, r, &req); err != nil {
		writeDomainError(w, r, h.logger, "invalid request body", err)
		return
	}
	if err := req.Validate(); err != nil {
		writeDomainError(w, r, h.logger, "invalid contact request", err)
		return
	}

	h.logger.WithContext(r.Context()).Info().
		Str("email", req.Email).
		Str("vehicle_id", req.VehicleID).
		Int("message_length", len(req.Message)).
		Msg("Contact request received")

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "received"})
}
