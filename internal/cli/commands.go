package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spec-kit/donor-registry/internal/service"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Prepare the record store",
		Long: `Create the blob header or apply database migrations for the configured
backend. Existing records are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, done, err := openRegistry(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer done()
			return newFormatter(cmd, rootOpts).Print(fmt.Sprintf("%s store initialized", reg.Backend))
		},
	}
}

// PasswordEnv supplies the register password when neither --password nor
// --password-stdin is given.
const PasswordEnv = "REGISTRY_PASSWORD"

type registerOptions struct {
	input           service.RegistrationInput
	confirmPassword string
	passwordStdin   bool
}

// resolvePassword picks the password source. The flag wins, then stdin,
// then the environment.
func (o *registerOptions) resolvePassword(cmd *cobra.Command) error {
	switch {
	case cmd.Flags().Changed("password"):
	case o.passwordStdin:
		pw, err := readPasswordLine(cmd.InOrStdin())
		if err != nil {
			return WrapExitError(ExitCommandError, "read password from stdin", err)
		}
		o.input.Password = pw
	default:
		o.input.Password = os.Getenv(PasswordEnv)
	}
	return nil
}

// readPasswordLine returns the first line of r without its line ending.
func readPasswordLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &registerOptions{}

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a donor",
		Long: `Register a donor. The password is taken from --password-stdin, or from
the REGISTRY_PASSWORD environment variable when no password flag is given.
Passing --password on the command line leaves it in shell history and the
process list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.resolvePassword(cmd); err != nil {
				return err
			}
			reg, done, err := openRegistry(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer done()

			in := opts.input
			in.ConfirmPassword = opts.confirmPassword
			if !cmd.Flags().Changed("confirm-password") {
				in.ConfirmPassword = in.Password
			}
			rec, err := reg.Registration.Register(cmd.Context(), in)
			if err != nil {
				return err
			}
			return newFormatter(cmd, rootOpts).Print(rec.WithoutPassword())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.input.FullName, "name", "", "full name")
	f.StringVar(&opts.input.Email, "email", "", "email address")
	f.StringVar(&opts.input.Phone, "phone", "", "phone number")
	f.StringVar(&opts.input.BloodGroup, "blood-group", "", "blood group (A+, A-, B+, B-, AB+, AB-, O+, O-)")
	f.StringVar(&opts.input.City, "city", "", "city")
	f.StringVar(&opts.input.Password, "password", "", "password (visible in shell history; prefer --password-stdin or "+PasswordEnv+")")
	f.BoolVar(&opts.passwordStdin, "password-stdin", false, "read the password from the first line of stdin")
	f.StringVar(&opts.confirmPassword, "confirm-password", "", "password confirmation (defaults to the password)")
	f.BoolVar(&opts.input.AcceptTerms, "accept-terms", false, "accept the registration terms")
	cmd.MarkFlagsMutuallyExclusive("password", "password-stdin")
	return cmd
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, done, err := openRegistry(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer done()

			users, err := reg.Directory.List(cmd.Context())
			if err != nil {
				return err
			}
			return newFormatter(cmd, rootOpts).Print(users)
		},
	}
}

// NewFindCommand creates the find command.
func NewFindCommand(rootOpts *RootOptions) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Look up a user by email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, done, err := openRegistry(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer done()

			rec, err := reg.Directory.Lookup(cmd.Context(), email)
			if err != nil {
				return err
			}
			return newFormatter(cmd, rootOpts).Print(*rec)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email address (case-insensitive)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	var filter service.DonorFilter

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search donors by name, city or blood group",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				filter.Query = args[0]
			}
			reg, done, err := openRegistry(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer done()

			donors, err := reg.Directory.SearchDonors(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return newFormatter(cmd, rootOpts).Print(donors)
		},
	}
	cmd.Flags().StringVar(&filter.BloodGroup, "blood-group", "", "exact blood group")
	cmd.Flags().StringVar(&filter.City, "city", "", "exact city, case-insensitive")
	return cmd
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a browser local-storage dump",
		Long: `Import users from a JSON object of local-storage keys to string values,
as copied from the browser. The usersCSV and rv_users keys are read; rows
that cannot be parsed and emails already registered are counted and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "read dump", err)
			}

			reg, done, err := openRegistry(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer done()

			report, err := reg.Import.ImportJSON(cmd.Context(), data)
			if err != nil {
				return err
			}
			return newFormatter(cmd, rootOpts).Print(report)
		},
	}
}
