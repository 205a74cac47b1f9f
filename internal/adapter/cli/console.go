// Package cli is the interactive terminal front end of the ATM.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"terminal-bank/internal/core/domain"
	"terminal-bank/internal/core/ports"

	"github.com/rs/zerolog"
)

// ConsoleOptions configures a Console.
type ConsoleOptions struct {
	// Operator enables the account administration commands. It is meant
	// for the bank operator's terminal, never for a customer one.
	Operator bool
}

// Console reads one command per line and renders results as text.
// Each Console owns a single session.
type Console struct {
	sessions ports.SessionService
	ledger   ports.LedgerService
	session  *domain.Session
	opts     ConsoleOptions
	in       *bufio.Reader
	out      io.Writer
	log      zerolog.Logger
}

func NewConsole(sessions ports.SessionService, ledger ports.LedgerService, in io.Reader, out io.Writer, log zerolog.Logger, opts ConsoleOptions) *Console {
	return &Console{
		sessions: sessions,
		ledger:   ledger,
		session:  sessions.NewSession(),
		opts:     opts,
		in:       bufio.NewReader(in),
		out:      out,
		log:      log,
	}
}

// Run loops until exit, end of input or ctx cancellation.
func (c *Console) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.printMenu()

		line, err := c.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(c.out)
				c.println("Goodbye!")
				return nil
			}
			return fmt.Errorf("reading command: %w", err)
		}

		if !c.Execute(ctx, line) {
			return nil
		}
	}
}

// Execute runs a single command line. It returns false when the console
// should stop.
func (c *Console) Execute(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	args := parts[1:]

	switch strings.ToLower(parts[0]) {
	case "register":
		c.register(ctx)
	case "login":
		c.login(ctx, args)
	case "withdraw":
		c.withdraw(ctx, args)
	case "transfer":
		c.transfer(ctx, args)
	case "balance":
		c.balance(ctx)
	case "logout":
		c.logout(ctx)
	case "accounts", "suspend", "activate", "close", "delete":
		if !c.opts.Operator {
			c.println(operatorOnly)
			return true
		}
		c.operator(ctx, strings.ToLower(parts[0]), args)
	case "help":
		c.printHelp()
	case "exit", "quit":
		if _, ok := c.sessions.CurrentAccount(c.session); ok {
			_ = c.sessions.Logout(ctx, c.session)
		}
		c.println("Goodbye!")
		return false
	default:
		c.println("Unknown command")
	}
	return true
}

func (c *Console) register(ctx context.Context) {
	name, ok := c.prompt("Enter name: ")
	if !ok {
		return
	}
	rawBalance, ok := c.prompt("Enter initial balance: ")
	if !ok {
		return
	}
	balance, err := domain.ParseAmount(rawBalance)
	if err != nil {
		c.println(invalidNumber)
		return
	}

	res, err := c.ledger.Register(ctx, name, balance)
	if err != nil {
		c.fail("register", err)
		return
	}
	c.printf("Registration successful!\nAccount Number: %s\nPIN: %s\n", res.Account.AccountNumber, res.Credential)
}

func (c *Console) login(ctx context.Context, args []string) {
	if len(args) < 1 {
		c.println("Usage: login [name]")
		return
	}
	pin, ok := c.prompt("Enter PIN: ")
	if !ok {
		return
	}

	account, err := c.sessions.Login(ctx, c.session, strings.Join(args, " "), pin)
	if err != nil {
		c.fail("login", err)
		return
	}
	c.printf("Welcome %s!\nCurrent balance: $%s\n", account.Name, domain.FormatMoney(account.Balance))
}

func (c *Console) withdraw(ctx context.Context, args []string) {
	if len(args) < 1 {
		c.println("Usage: withdraw [amount]")
		return
	}
	amount, err := domain.ParseAmount(args[0])
	if err != nil {
		c.println(invalidNumber)
		return
	}

	balance, err := c.sessions.Withdraw(ctx, c.session, amount)
	if err != nil {
		c.fail("withdraw", err)
		return
	}
	c.printf("Withdrawal successful!\nNew balance: $%s\n", domain.FormatMoney(balance))
}

func (c *Console) transfer(ctx context.Context, args []string) {
	if len(args) < 2 {
		c.println("Usage: transfer [account number] [amount]")
		return
	}
	amount, err := domain.ParseAmount(args[1])
	if err != nil {
		c.println(invalidNumber)
		return
	}

	balance, err := c.sessions.Transfer(ctx, c.session, args[0], amount)
	if err != nil {
		c.fail("transfer", err)
		return
	}
	c.printf("Transfer successful!\nNew balance: $%s\n", domain.FormatMoney(balance))
}

func (c *Console) balance(ctx context.Context) {
	account, err := c.sessions.Balance(ctx, c.session)
	if err != nil {
		c.fail("balance", err)
		return
	}
	c.printf("Account Number: %s\nBalance: $%s\n", account.AccountNumber, domain.FormatMoney(account.Balance))
}

func (c *Console) logout(ctx context.Context) {
	if err := c.sessions.Logout(ctx, c.session); err != nil {
		c.fail("logout", err)
		return
	}
	c.println("Logout successful!")
}

func (c *Console) listAccounts(ctx context.Context) {
	accounts, err := c.ledger.ListAccounts(ctx)
	if err != nil {
		c.fail("accounts", err)
		return
	}
	if len(accounts) == 0 {
		c.println("No accounts yet")
		return
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ACCOUNT NUMBER\tNAME\tBALANCE\tSTATUS")
	for _, a := range accounts {
		fmt.Fprintf(tw, "%s\t%s\t$%s\t%s\n", a.AccountNumber, a.Name, domain.FormatMoney(a.Balance), a.Status)
	}
	_ = tw.Flush()
}

func (c *Console) operator(ctx context.Context, cmd string, args []string) {
	c.log.Info().Str("command", cmd).Strs("args", args).Msg("operator command")

	switch cmd {
	case "accounts":
		c.listAccounts(ctx)
	case "suspend":
		c.setStatus(ctx, args, domain.AccountStatusSuspended)
	case "activate":
		c.setStatus(ctx, args, domain.AccountStatusActive)
	case "close":
		c.setStatus(ctx, args, domain.AccountStatusClosed)
	case "delete":
		c.deleteAccount(ctx, args)
	}
}

func (c *Console) deleteAccount(ctx context.Context, args []string) {
	if len(args) < 1 {
		c.println("Usage: delete [account number]")
		return
	}
	if err := c.ledger.DeleteAccount(ctx, args[0]); err != nil {
		c.fail("delete", err)
		return
	}
	c.printf("Account %s deleted\n", args[0])
}

func (c *Console) setStatus(ctx context.Context, args []string, status domain.AccountStatus) {
	if len(args) < 1 {
		c.printf("Usage: %s [account number]\n", statusVerb(status))
		return
	}

	account, err := c.ledger.SetStatus(ctx, args[0], status)
	if err != nil {
		c.fail("set status", err)
		return
	}
	c.printf("Account %s is now %s\n", account.AccountNumber, account.Status)
}

func (c *Console) printMenu() {
	c.println("\nATM Menu:")
	c.println("1. register")
	c.println("2. login [name]")
	c.println("3. withdraw [amount]")
	c.println("4. transfer [account number] [amount]")
	c.println("5. balance")
	c.println("6. logout")
	c.println("7. exit")
	fmt.Fprint(c.out, "> ")
}

func (c *Console) printHelp() {
	c.println("Customer commands: register, login [name], withdraw [amount],")
	c.println("  transfer [account number] [amount], balance, logout, exit")
	if c.opts.Operator {
		c.println("Operator commands: accounts, suspend [account number],")
		c.println("  activate [account number], close [account number], delete [account number]")
	}
}

// prompt asks for one line of input. It returns false when input ended.
func (c *Console) prompt(label string) (string, bool) {
	fmt.Fprint(c.out, label)
	line, err := c.readLine()
	if err != nil && line == "" {
		return "", false
	}
	return line, true
}

func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *Console) println(s string) {
	fmt.Fprintln(c.out, s)
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func statusVerb(status domain.AccountStatus) string {
	switch status {
	case domain.AccountStatusSuspended:
		return "suspend"
	case domain.AccountStatusClosed:
		return "close"
	default:
		return "activate"
	}
}
