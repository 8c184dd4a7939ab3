package main

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"banking-client/internal/common/errors"
	"banking-client/internal/models"
	"banking-client/internal/router"

	createaccount "banking-client/internal/flows/account/create-account"
	updateaccount "banking-client/internal/flows/account/update-account"
	signin "banking-client/internal/flows/auth/sign-in"
	signup "banking-client/internal/flows/auth/sign-up"
	preferences "banking-client/internal/flows/settings/preferences"
	sendtransfer "banking-client/internal/flows/transfer/send-transfer"
)

const helpText = `Commands:
  login                     sign in
  register                  create a user
  create-account            open the bank account
  update-account            edit the account
  dashboard                 reload and show the account
  notifications             list notifications
  read <id>                 mark a notification as read
  transfer                  send money
  scan <file>               transfer to the account in a QR image
  qr <dir>                  save the account QR code
  history                   list transactions
  settings [key value]      show or change theme, language, sound, avatar, biometric, fingerprint
  logout                    sign out
  quit                      exit
`

type command func(ctx context.Context, args []string)

func (a *app) commands() map[string]command {
	return map[string]command{
		"help":           func(context.Context, []string) { a.out.printf("%s", helpText) },
		"login":          a.cmdLogin,
		"register":       a.cmdRegister,
		"create-account": a.cmdCreateAccount,
		"update-account": a.cmdUpdateAccount,
		"dashboard":      a.cmdDashboard,
		"notifications":  a.cmdNotifications,
		"read":           a.cmdRead,
		"transfer":       a.cmdTransfer,
		"scan":           a.cmdScan,
		"qr":             a.cmdQR,
		"history":        a.cmdHistory,
		"settings":       a.cmdSettings,
		"logout":         a.cmdLogout,
	}
}

// run reads commands until quit, end of input or ctx is cancelled.
func (a *app) run(ctx context.Context) {
	cmds := a.commands()
	a.out.printf("%s %s. Type help for commands.\n", a.cfg.App.Name, a.cfg.App.Version)

	if a.session.IsSessionValid(ctx) {
		a.router.Navigate(ctx, router.Dashboard, router.State{})
	} else {
		a.signIn.Enter(ctx)
	}

	for ctx.Err() == nil {
		line, ok := a.out.readLine()
		if !ok {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name, args := fields[0], fields[1:]
		if name == "quit" || name == "exit" {
			return
		}
		cmd, ok := cmds[name]
		if !ok {
			a.out.printf("Unknown command %q, type help\n", name)
			continue
		}
		cmd(ctx, args)
	}
}

func (a *app) requireUser(ctx context.Context) bool {
	if a.session.User(ctx) == nil {
		a.out.printf("Please login first\n")
		return false
	}
	return true
}

// ==========================
// Auth
// ==========================

func (a *app) cmdLogin(ctx context.Context, _ []string) {
	a.signIn.Enter(ctx)
	username, ok := a.out.prompt("Username")
	if !ok {
		return
	}
	password, ok := a.out.prompt("Password")
	if !ok {
		return
	}
	out, err := a.signIn.Execute(ctx, &signin.Input{Username: username, Password: password})
	if err != nil {
		return
	}
	if out.Next == router.CreateAccount {
		a.out.printf("No account yet, run create-account to open one\n")
	}
}

func (a *app) cmdRegister(ctx context.Context, _ []string) {
	in := &signup.Input{}
	var ok bool
	if in.Username, ok = a.out.prompt("Username"); !ok {
		return
	}
	if in.Email, ok = a.out.prompt("Email"); !ok {
		return
	}
	if in.Password, ok = a.out.prompt("Password"); !ok {
		return
	}
	if in.ConfirmPassword, ok = a.out.prompt("Confirm password"); !ok {
		return
	}
	_, _ = a.signUp.Execute(ctx, in)
}

func (a *app) cmdLogout(ctx context.Context, _ []string) {
	a.prefs.Logout(ctx)
	a.out.printf("Signed out\n")
}

// ==========================
// Account
// ==========================

func (a *app) cmdCreateAccount(ctx context.Context, _ []string) {
	_, state := a.router.Current()
	userID, err := a.createAccount.ResolveUserID(ctx, state)
	if err != nil {
		return
	}

	in := &createaccount.Input{UserID: userID}
	var ok bool
	if in.AccountName, ok = a.out.prompt("Account name"); !ok {
		return
	}
	accountType, ok := a.out.promptDefault("Account type (SAVINGS, CHECKING, CREDIT)", string(models.AccountTypeSavings))
	if !ok {
		return
	}
	in.AccountType = models.AccountType(strings.ToUpper(accountType))
	currency, ok := a.out.promptDefault("Currency (VND, USD)", "VND")
	if !ok {
		return
	}
	in.Currency = strings.ToUpper(currency)
	if in.InitialDeposit, ok = a.promptAmount("Initial deposit", "0"); !ok {
		return
	}

	if _, err := a.createAccount.Execute(ctx, in); err != nil {
		return
	}
	a.router.Navigate(ctx, router.Dashboard, router.State{})
}

func (a *app) cmdUpdateAccount(ctx context.Context, _ []string) {
	form, err := a.updateAccount.Load(ctx)
	if err != nil {
		return
	}
	in := &updateaccount.Input{InitialDeposit: form.InitialDeposit}
	var ok bool
	if in.AccountName, ok = a.out.promptDefault("Account name", form.AccountName); !ok {
		return
	}
	accountType, ok := a.out.promptDefault("Account type", string(form.AccountType))
	if !ok {
		return
	}
	in.AccountType = models.AccountType(strings.ToUpper(accountType))
	currency, ok := a.out.promptDefault("Currency", form.Currency)
	if !ok {
		return
	}
	in.Currency = strings.ToUpper(currency)
	_, _ = a.updateAccount.Execute(ctx, in)
}

func (a *app) promptAmount(label, def string) (decimal.Decimal, bool) {
	for {
		raw, ok := a.out.promptDefault(label, def)
		if !ok {
			return decimal.Zero, false
		}
		amount, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
		if err == nil {
			return amount, true
		}
		a.out.printf("%q is not a number\n", raw)
	}
}

// ==========================
// Dashboard
// ==========================

func (a *app) cmdDashboard(ctx context.Context, _ []string) {
	if !a.requireUser(ctx) {
		return
	}
	if !a.mounted {
		a.router.Navigate(ctx, router.Dashboard, router.State{})
		return
	}
	if err := a.view.Refresh(ctx); err == nil {
		a.showDashboard()
	}
}

func (a *app) showDashboard() {
	state := a.view.State()
	a.out.account(state.Account, state.UnreadCount)
}

func (a *app) cmdNotifications(ctx context.Context, _ []string) {
	if !a.requireUser(ctx) {
		return
	}
	a.out.notifications(a.view.State().Notifications)
}

func (a *app) cmdRead(ctx context.Context, args []string) {
	if len(args) != 1 {
		a.out.printf("usage: read <id>\n")
		return
	}
	a.view.MarkRead(ctx, models.ID(args[0]))
}

func (a *app) cmdQR(ctx context.Context, args []string) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	if path, err := a.view.DownloadQR(dir); err == nil {
		a.out.printf("QR code saved to %s\n", path)
	}
}

func (a *app) cmdScan(ctx context.Context, args []string) {
	if len(args) != 1 {
		a.out.printf("usage: scan <file>\n")
		return
	}
	if !a.requireUser(ctx) {
		return
	}
	if _, err := a.view.ScanQR(ctx, args[0]); err != nil {
		return
	}
	_, state := a.router.Current()
	a.runTransfer(ctx, state)
}

// ==========================
// Transfer
// ==========================

func (a *app) cmdTransfer(ctx context.Context, _ []string) {
	if !a.requireUser(ctx) {
		return
	}
	a.router.Navigate(ctx, router.Transfer, router.State{})
	a.runTransfer(ctx, router.State{})
}

func (a *app) runTransfer(ctx context.Context, state router.State) {
	defer a.router.Navigate(ctx, router.Dashboard, router.State{})

	form, err := a.transfer.Open(ctx, state)
	if err != nil {
		return
	}
	a.out.printf("From %s, balance %s %s\n", form.SourceAccountNumber, form.Balance.String(), form.Currency)

	for !form.Checked {
		dest, ok := a.out.prompt("Destination account")
		if !ok || dest == "" {
			return
		}
		if _, err := a.transfer.CheckDestination(ctx, dest); err == nil {
			f := a.transfer.Form()
			form = &f
		}
	}
	a.out.printf("Recipient: %s (%s)\n", form.RecipientName, form.DestinationAccountNumber)

	amount, ok := a.promptAmount("Amount", "")
	if !ok {
		return
	}
	description, ok := a.out.prompt("Description")
	if !ok {
		return
	}

	for attempt := 0; attempt < 3; attempt++ {
		captcha, ok := a.out.prompt("Enter the code " + a.transfer.Form().Captcha)
		if !ok {
			return
		}
		out, err := a.transfer.Execute(ctx, &sendtransfer.Input{
			DestinationAccountNumber: form.DestinationAccountNumber,
			Amount:                   amount,
			Description:              description,
			Captcha:                  captcha,
		})
		if err == nil {
			a.out.printf("%s", sendtransfer.FormatReceipt(out.Receipt))
			a.offerReceipt(ctx, out.Receipt)
			return
		}
		if !errors.HasCode(err, errors.ErrCodeCaptchaMismatch) {
			return
		}
	}
}

func (a *app) offerReceipt(_ context.Context, r *models.TransactionReceipt) {
	dir, ok := a.out.prompt("Save receipt to directory (blank to skip)")
	if !ok || dir == "" {
		return
	}
	if path, err := a.transfer.SaveReceipt(dir, r); err == nil {
		a.out.printf("Receipt saved to %s\n", path)
	}
}

func (a *app) cmdHistory(ctx context.Context, _ []string) {
	if !a.requireUser(ctx) {
		return
	}
	if _, err := a.transfer.Open(ctx, router.State{}); err != nil {
		return
	}
	list, err := a.transfer.History(ctx)
	if err != nil {
		return
	}
	a.out.history(list)
}

// ==========================
// Settings
// ==========================

func (a *app) cmdSettings(ctx context.Context, args []string) {
	if len(args) < 2 {
		s := a.prefs.Load(ctx)
		a.out.printf("theme: %s\nlanguage: %s\nsound: %t\navatar: %t\n", s.Theme, s.Language, s.NotificationSound, s.HasAvatar)
		return
	}
	key, value := args[0], args[1]
	switch key {
	case "theme":
		_, _ = a.prefs.Execute(ctx, &preferences.Input{Theme: value})
	case "language":
		_, _ = a.prefs.Execute(ctx, &preferences.Input{Language: value})
	case "sound":
		on := isOn(value)
		_, _ = a.prefs.Execute(ctx, &preferences.Input{NotificationSound: &on})
	case "avatar":
		_, _ = a.prefs.SetAvatar(ctx, value)
	case "biometric":
		a.prefs.SetBiometric(isOn(value))
	case "fingerprint":
		a.prefs.SetFingerprint(isOn(value))
	default:
		a.out.printf("Unknown setting %q\n", key)
	}
}

func isOn(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "yes", "1":
		return true
	}
	return false
}
