package handlers

import (
	"fmt"
	"html"
	"log"
	"net/http"

	"github.com/kevinaaaquil/bookstore/metrics"
	"github.com/kevinaaaquil/bookstore/models"
	"github.com/kevinaaaquil/bookstore/service"
)

type ContactHandler struct {
	Mail Sender
	Logs EmailLogger
}

type contactRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"max=30"`
	Message string `json:"message" validate:"required,max=2000"`
}

// Send forwards a contact form submission to the store inbox.
func (h *ContactHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	msg := service.Email{
		To:      h.Mail.Inbox(),
		Subject: "New Contact Us Message",
		HTML: fmt.Sprintf(`<h3>Contact Us Form Submission</h3>
<p><strong>Name:</strong> %s</p>
<p><strong>Email:</strong> %s</p>
<p><strong>Phone:</strong> %s</p>
<p><strong>Message:</strong> %s</p>`,
			html.EscapeString(req.Name), html.EscapeString(req.Email),
			html.EscapeString(req.Phone), html.EscapeString(req.Message)),
	}
	if err := h.Mail.Send(r.Context(), msg); err != nil {
		log.Printf("Error sending email: %v", err)
		metrics.EmailsSentTotal.WithLabelValues(models.EmailKindContact, "failure").Inc()
		writeMessage(w, http.StatusInternalServerError, "Error sending message. Please try again later.")
		return
	}
	metrics.EmailsSentTotal.WithLabelValues(models.EmailKindContact, "success").Inc()
	logEmail(r.Context(), h.Logs, &models.EmailLog{
		Kind:    models.EmailKindContact,
		ToEmail: msg.To,
		Subject: msg.Subject,
	})
	writeMessage(w, http.StatusOK, "Message sent successfully!")
}
