package providers

import (
	"context"
	"time"
)

// StaticDevice is a Device backed by fixed values. The API server builds one
// from the evaluation request payload; tests build them inline.
type StaticDevice struct {
	OS        string
	Build     string
	AppVer    string
	BrandName string
	ModelName string
	Locale    string
	Installed time.Time
}

func (d StaticDevice) Platform() string    { return d.OS }
func (d StaticDevice) BuildNumber() string { return d.Build }
func (d StaticDevice) Version() string     { return d.AppVer }
func (d StaticDevice) Brand() string       { return d.BrandName }
func (d StaticDevice) Model() string       { return d.ModelName }
func (d StaticDevice) LocaleTag() string   { return d.Locale }

func (d StaticDevice) FirstInstallTime() (time.Time, error) {
	return d.Installed, nil
}

// StaticIdentity returns a fixed user snapshot. A nil User means signed out.
type StaticIdentity struct {
	User *User
}

func (i StaticIdentity) CurrentUser(_ context.Context) (*User, error) {
	return i.User, nil
}

// StaticPush returns fixed push state.
type StaticPush struct {
	FCMToken string
	Enabled  bool
}

func (p StaticPush) Token(_ context.Context) (string, error) {
	return p.FCMToken, nil
}

func (p StaticPush) NotificationsEnabled(_ context.Context) (bool, error) {
	return p.Enabled, nil
}
