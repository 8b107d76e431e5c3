package webpush

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/focusboard/focusboard-server/config"
)

// ErrSubscriptionGone marks a permanent rejection: the push service no
// longer knows the endpoint and the subscription should be pruned.
var ErrSubscriptionGone = errors.New("subscription endpoint gone")

type Client struct {
	keys    *VapidKeys
	subject string
	ttl     time.Duration
	timeout time.Duration
}

func NewClient(c *config.Config) (*Client, error) {
	keys, err := ParseVapidKeys(c.Vapid.PublicKey, c.Vapid.PrivateKey)
	if err != nil {
		return nil, err
	}

	return &Client{
		keys:    keys,
		subject: c.Vapid.Subject,
		ttl:     time.Duration(c.Vapid.Ttl) * time.Second,
		timeout: time.Duration(c.Dispatch.SendTimeout) * time.Second,
	}, nil
}

func (p *Client) PublicKey() string {
	return p.keys.PublicKeyB64
}

// Send encrypts and posts one payload to one subscription endpoint. No
// retries; a 404/410 response surfaces as ErrSubscriptionGone.
func (p *Client) Send(endpoint, p256dh, auth string, payload []byte) error {
	body, err := encryptPayload(p256dh, auth, payload)
	if err != nil {
		return err
	}

	token, err := p.keys.Token(endpoint, p.subject, p.ttl)
	if err != nil {
		return err
	}

	a := fiber.AcquireAgent()
	defer fiber.ReleaseAgent(a)

	res := fiber.AcquireResponse()
	defer fiber.ReleaseResponse(res)

	a.Reuse()
	req := a.Request()
	req.Header.SetMethod(fiber.MethodPost)
	req.SetRequestURI(endpoint)
	req.Header.Set("Content-Encoding", "aes128gcm")
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("TTL", strconv.Itoa(int(p.ttl.Seconds())))
	req.Header.Set("Authorization", "vapid t="+token+", k="+p.keys.PublicKeyB64)
	req.SetBody(body)

	if err := a.Parse(); err != nil {
		return err
	}

	code, resBody, errArr := a.SetResponse(res).Timeout(p.timeout).Bytes()
	if len(errArr) != 0 {
		return errArr[0]
	}

	if code == fiber.StatusNotFound || code == fiber.StatusGone {
		return ErrSubscriptionGone
	}

	if code < 200 || code > 299 {
		return errors.New("push endpoint returned " + strconv.Itoa(code) + ": " + string(resBody))
	}

	return nil
}
