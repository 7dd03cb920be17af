package auth

import "context"

// Viewer is the authenticated caller. A nil *Viewer means anonymous.
type Viewer struct {
	ID      uint
	IsAdmin bool
}

type viewerKey struct{}

func WithViewer(ctx context.Context, v *Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

func ViewerFrom(ctx context.Context) *Viewer {
	v, _ := ctx.Value(viewerKey{}).(*Viewer)
	return v
}

// IDPtr returns nil for anonymous viewers.
func (v *Viewer) IDPtr() *uint {
	if v == nil {
		return nil
	}
	id := v.ID
	return &id
}
