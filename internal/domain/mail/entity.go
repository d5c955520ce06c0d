package mail

import "time"

// Encryption modes for an outbound SMTP connection.
const (
	EncryptionNone = "none"
	EncryptionSSL  = "ssl" // implicit TLS, usually port 465
	EncryptionTLS  = "tls" // STARTTLS, usually port 587
)

// Configuration holds the parameters of an outbound mail relay. The active
// configuration with the lowest id is the one in use.
type Configuration struct {
	ID          uint
	Host        string
	Port        int
	Username    string
	Password    string
	Encryption  string
	FromName    string
	FromAddress string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Sender returns the envelope sender address.
func (c *Configuration) Sender() string {
	if c.FromAddress != "" {
		return c.FromAddress
	}
	return c.Username
}

// Message is a plain-text mail.
type Message struct {
	To      string
	Subject string
	Body    string
}
