package mailer

import (
	"fmt"
	"strings"
)

// Template names used by producers across the application.
const (
	TemplateEmailVerification = "email_verification"
	TemplatePasswordReset     = "password_reset"
	TemplatePasswordChanged   = "password_changed"
	TemplateWelcome           = "welcome"
	TemplateInvoiceCreated    = "invoice_created"
	TemplatePaymentReceived   = "payment_received"
	TemplateTrialEnding       = "trial_ending"
)

// Template is a transactional email with {{var}} placeholders in both
// subject and body.
type Template struct {
	Subject string
	HTML    string
}

// Render substitutes every {{key}} placeholder with its value.
// Unknown placeholders are left untouched.
func (t Template) Render(vars map[string]string) (subject, body string) {
	subject = substitute(t.Subject, vars)
	body = substitute(t.HTML, vars)
	return subject, body
}

func substitute(s string, vars map[string]string) string {
	for key, value := range vars {
		s = strings.ReplaceAll(s, "{{"+key+"}}", value)
	}
	return s
}

// Lookup returns a registered template by name.
func Lookup(name string) (Template, error) {
	t, ok := templates[name]
	if !ok {
		return Template{}, fmt.Errorf("mailer: unknown template %q", name)
	}
	return t, nil
}

var templates = map[string]Template{
	TemplateEmailVerification: {
		Subject: "Verifica tu cuenta de NubemERP",
		HTML: `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #333;">Bienvenido a NubemERP</h1>
  <p>Hola {{name}},</p>
  <p>Gracias por registrarte. Confirma tu dirección de correo con el siguiente botón:</p>
  <div style="text-align: center; margin: 30px 0;">
    <a href="{{verificationUrl}}" style="background-color: #007bff; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Verificar email</a>
  </div>
  <p>O copia y pega este enlace: {{verificationUrl}}</p>
  <p>El enlace caduca en 24 horas.</p>
  <p>Un saludo,<br>El equipo de NubemERP</p>
</div>`,
	},
	TemplatePasswordReset: {
		Subject: "Restablece tu contraseña",
		HTML: `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #333;">Restablecer contraseña</h1>
  <p>Hola {{name}},</p>
  <p>Has solicitado restablecer tu contraseña. Pulsa el botón para crear una nueva:</p>
  <div style="text-align: center; margin: 30px 0;">
    <a href="{{resetUrl}}" style="background-color: #007bff; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Restablecer contraseña</a>
  </div>
  <p>O copia y pega este enlace: {{resetUrl}}</p>
  <p>El enlace caduca en 1 hora. Si no lo has solicitado, ignora este mensaje.</p>
  <p>Un saludo,<br>El equipo de NubemERP</p>
</div>`,
	},
	TemplatePasswordChanged: {
		Subject: "Contraseña actualizada",
		HTML: `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #333;">Contraseña actualizada</h1>
  <p>Hola {{name}},</p>
  <p>Tu contraseña se ha cambiado correctamente.</p>
  <p>Si no has sido tú, contacta con soporte inmediatamente.</p>
  <p>Un saludo,<br>El equipo de NubemERP</p>
</div>`,
	},
	TemplateWelcome: {
		Subject: "Tu cuenta de NubemERP está lista",
		HTML: `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #333;">Cuenta verificada</h1>
  <p>Hola {{name}},</p>
  <p>Tu dirección de correo está verificada y tu cuenta lista para usar.</p>
  <div style="text-align: center; margin: 30px 0;">
    <a href="{{dashboardUrl}}" style="background-color: #28a745; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Ir al panel</a>
  </div>
  <p>Un saludo,<br>El equipo de NubemERP</p>
</div>`,
	},
	TemplateInvoiceCreated: {
		Subject: "Factura {{invoiceNumber}} emitida",
		HTML: `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #333;">Factura emitida</h1>
  <p>Hola {{customerName}},</p>
  <p>Se ha emitido la factura {{invoiceNumber}} por importe de {{amount}}.</p>
  <p>Fecha de vencimiento: {{dueDate}}</p>
  <div style="text-align: center; margin: 30px 0;">
    <a href="{{invoiceUrl}}" style="background-color: #28a745; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Ver factura</a>
  </div>
  <p>Gracias por su confianza.</p>
  <p>Un saludo,<br>{{companyName}}</p>
</div>`,
	},
	TemplatePaymentReceived: {
		Subject: "Pago recibido de la factura {{invoiceNumber}}",
		HTML: `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #333;">Pago recibido</h1>
  <p>Hola {{customerName}},</p>
  <p>Hemos recibido su pago de {{amount}} de la factura {{invoiceNumber}}.</p>
  <p>Gracias por su puntualidad.</p>
  <p>Un saludo,<br>{{companyName}}</p>
</div>`,
	},
	TemplateTrialEnding: {
		Subject: "Tu periodo de prueba termina en {{daysLeft}} días",
		HTML: `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #333;">Fin del periodo de prueba</h1>
  <p>Hola {{name}},</p>
  <p>Tu periodo de prueba de NubemERP termina en {{daysLeft}} días.</p>
  <p>Para seguir disfrutando de todas las funciones, mejora tu plan:</p>
  <div style="text-align: center; margin: 30px 0;">
    <a href="{{upgradeUrl}}" style="background-color: #28a745; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px;">Mejorar plan</a>
  </div>
  <p>Un saludo,<br>El equipo de NubemERP</p>
</div>`,
	},
}
