package middleware

import tele "gopkg.in/telebot.v4"

// AdminOptions configure AdminOnlyMiddleware. OnReject, when set, answers
// updates from anyone else; otherwise they are dropped silently.
type AdminOptions struct {
	AdminID  int64
	OnReject tele.HandlerFunc
}

func (o AdminOptions) allows(u *tele.User) bool {
	return o.AdminID != 0 && u != nil && u.ID == o.AdminID
}

// AdminOnlyMiddleware passes only updates sent by AdminID. A zero AdminID admits nobody.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	reject := opts.OnReject
	if reject == nil {
		reject = func(tele.Context) error { return nil }
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if !opts.allows(c.Sender()) {
				return reject(c)
			}
			return next(c)
		}
	}
}
