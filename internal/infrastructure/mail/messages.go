package mail

import "fmt"

const (
	kindPasswordReset = "password_reset"
	kindVerification  = "email_verification"
)

// The reset email carries both channels: the link for browser flows and the
// 6-digit code for clients that cannot follow links.
func passwordResetMessage(baseURL, to, token, code string) Message {
	body := fmt.Sprintf(
		"Hemos recibido una solicitud para restablecer tu contraseña.\n\n"+
			"Abre este enlace para continuar:\n%s/reset-password?token=%s\n\n"+
			"O introduce este código en la aplicación: %s\n\n"+
			"El enlace y el código caducan en 24 horas. Si no solicitaste este "+
			"cambio, ignora este mensaje.",
		baseURL, token, code,
	)
	return Message{
		To:      to,
		Subject: "Restablece tu contraseña",
		Body:    body,
		Kind:    kindPasswordReset,
	}
}

func verificationMessage(baseURL, to, token string) Message {
	body := fmt.Sprintf(
		"Confirma tu dirección de correo abriendo este enlace:\n"+
			"%s/verify-email?token=%s\n\n"+
			"El enlace caduca en 24 horas.",
		baseURL, token,
	)
	return Message{
		To:      to,
		Subject: "Verifica tu correo electrónico",
		Body:    body,
		Kind:    kindVerification,
	}
}
