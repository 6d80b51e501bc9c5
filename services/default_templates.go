package services

// notificationTemplate is the resolved, store-independent view of a template.
type notificationTemplate struct {
	Name    string
	Subject string
	Email   string
	SMS     string
}

// Template names dispatched by the workflow.
const (
	TemplateApplicationSubmitted = "application_submitted"
	TemplatePaymentOrderCreated  = "payment_order_created"
	TemplatePaymentSuccess       = "payment_success"
	TemplatePaymentFailed        = "payment_failed"
	TemplateApplicationApproved  = "application_approved"
	TemplateApplicationRejected  = "application_rejected"
)

var fallbackTemplate = notificationTemplate{
	Subject: "Notification",
	Email:   "You have a new notification.",
	SMS:     "You have a new notification.",
}

// defaultTemplates is built once and never mutated; store rows override it.
var defaultTemplates = map[string]notificationTemplate{
	TemplateApplicationSubmitted: {
		Subject: "Application Submitted Successfully",
		Email: `Dear {{business_name}} Team,

Your vendor application has been submitted successfully.
Application ID: {{application_id}}

Next steps:
1. Complete the payment process
2. Our team will review your application
3. You will receive updates via email and SMS

Thank you for choosing our platform.

Best regards,
Vendor Onboarding Team`,
		SMS: "Your vendor application {{application_id}} has been submitted successfully. Complete payment to proceed with review.",
	},
	TemplatePaymentOrderCreated: {
		Subject: "Payment Initiated for Application {{application_id}}",
		Email: `Dear {{business_name}} Team,

A payment order of {{currency}} {{amount}} has been created for application {{application_id}}.
Order ID: {{order_id}}

Please complete the payment to send your application for review.

Best regards,
Vendor Onboarding Team`,
	},
	TemplatePaymentSuccess: {
		Subject: "Payment Confirmed - Application Under Review",
		Email: `Dear Customer,

Your payment of {{currency}} {{amount}} for application {{application_id}} has been confirmed.

Your application is now under review. We will notify you once the review is complete.

Best regards,
Vendor Onboarding Team`,
		SMS: "Payment confirmed for application {{application_id}}. Your application is now under review.",
	},
	TemplatePaymentFailed: {
		Subject: "Payment Failed - Action Required",
		Email: `Dear Customer,

We were unable to process your payment for application {{application_id}}.

Please try again or contact support if you continue to face issues.

Best regards,
Vendor Onboarding Team`,
		SMS: "Payment failed for application {{application_id}}. Please try again or contact support.",
	},
	TemplateApplicationApproved: {
		Subject: "Congratulations! Your Application is Approved",
		Email: `Dear {{business_name}} Team,

Congratulations! Your vendor application {{application_id}} has been approved.

Your Vendor ID: <strong>{{vendor_id}}</strong>

You can now access our vendor portal and start working with us.

Welcome aboard!

Best regards,
Vendor Onboarding Team`,
		SMS: "Congratulations! Your application {{application_id}} is approved. Vendor ID: {{vendor_id}}",
	},
	TemplateApplicationRejected: {
		Subject: "Application Update Required",
		Email: `Dear {{business_name}} Team,

We have reviewed your application {{application_id}}, and we need you to address the following:

{{rejection_reason}}

Please submit a new application with the required changes.

Best regards,
Vendor Onboarding Team`,
		SMS: "Your application {{application_id}} needs updates. Please check your email for details.",
	},
}

// DefaultTemplateNames lists the built-in template names.
func DefaultTemplateNames() []string {
	return []string{
		TemplateApplicationSubmitted,
		TemplatePaymentOrderCreated,
		TemplatePaymentSuccess,
		TemplatePaymentFailed,
		TemplateApplicationApproved,
		TemplateApplicationRejected,
	}
}
