package telegram

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
)

// TermAuth asks for the phone number, login code and password on the
// terminal. Used for the first run; afterwards the session file is enough.
type TermAuth struct{}

func (TermAuth) Phone(_ context.Context) (string, error) {
	fmt.Print("Phone number (e.g. +79123456789): ")
	var phone string
	_, err := fmt.Scanln(&phone)
	return phone, err
}

func (TermAuth) Password(_ context.Context) (string, error) {
	fmt.Print("Password: ")
	var password string
	_, err := fmt.Scanln(&password)
	return password, err
}

func (TermAuth) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	fmt.Print("Code from Telegram: ")
	var code string
	_, err := fmt.Scanln(&code)
	return code, err
}

func (TermAuth) AcceptTermsOfService(_ context.Context, _ tg.HelpTermsOfService) error {
	return nil
}

func (TermAuth) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, errors.New("sign up is not supported")
}
