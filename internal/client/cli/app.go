package cli

import (
	"bufio"
	"context"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/saltgate/internal/client/client"
	"github.com/dmitrijs2005/saltgate/internal/client/services"
	"github.com/dmitrijs2005/saltgate/internal/filex"
	"github.com/urfave/cli/v2"
)

const (
	appName            = "saltgate"
	defaultServer      = "http://localhost:8080"
	defaultTimeout     = 10 * time.Second
	sessionFileName    = "session.db"
	serverURLEnv       = "SALTGATE_SERVER"
	sessionPathEnv     = "SALTGATE_SESSION"
	requestTimeoutEnv  = "SALTGATE_TIMEOUT"
	passwordStdinUsage = "read the password as one line from stdin"
)

// ServiceFactory builds the auth service for one invocation. The returned
// closer is called after the command finishes.
type ServiceFactory func(ctx context.Context, serverURL, sessionPath string, timeout time.Duration) (services.AuthService, io.Closer, error)

// App holds the IO streams and the per-invocation auth service.
type App struct {
	in         *bufio.Reader
	stdinFd    int
	out        io.Writer
	errOut     io.Writer
	newService ServiceFactory

	authService services.AuthService
	closer      io.Closer
}

type Option func(*App)

// WithServiceFactory replaces the default HTTP + SQLite wiring.
func WithServiceFactory(f ServiceFactory) Option {
	return func(a *App) { a.newService = f }
}

// WithStdinFd sets the descriptor checked for a terminal before prompting.
func WithStdinFd(fd int) Option {
	return func(a *App) { a.stdinFd = fd }
}

func NewApp(in io.Reader, out, errOut io.Writer, opts ...Option) *App {
	a := &App{
		in:         bufio.NewReader(in),
		stdinFd:    int(os.Stdin.Fd()),
		out:        out,
		errOut:     errOut,
		newService: openService,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// openService wires the HTTP client to the session database at sessionPath,
// or at the default location when it is empty.
func openService(ctx context.Context, serverURL, sessionPath string, timeout time.Duration) (services.AuthService, io.Closer, error) {
	if sessionPath == "" {
		p, err := filex.DataFile(appName, sessionFileName)
		if err != nil {
			return nil, nil, err
		}
		sessionPath = p
	}

	db, err := client.InitDatabase(ctx, sessionPath)
	if err != nil {
		return nil, nil, err
	}

	c := client.NewHTTPClient(serverURL, client.WithTimeout(timeout))
	return services.NewAuthService(c, db), db, nil
}

// Run parses args (args[0] is the program name) and executes the command.
func (a *App) Run(ctx context.Context, args []string) error {
	return a.command().RunContext(ctx, args)
}

func (a *App) command() *cli.App {
	return &cli.App{
		Name:      appName,
		Usage:     "Challenge-hash login client for the saltgate API",
		Reader:    a.in,
		Writer:    a.out,
		ErrWriter: a.errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "base URL of the saltgate HTTP API",
				Value:   defaultServer,
				EnvVars: []string{serverURLEnv},
			},
			&cli.StringFlag{
				Name:    "session",
				Usage:   "path of the local session database",
				EnvVars: []string{sessionPathEnv},
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Usage:   "per-request timeout",
				Value:   defaultTimeout,
				EnvVars: []string{requestTimeoutEnv},
			},
		},
		Before: a.before,
		After:  a.after,
		Commands: []*cli.Command{
			a.saltCmd(),
			a.registerCmd(),
			a.loginCmd(),
			a.profileCmd(),
			a.logoutCmd(),
			a.pingCmd(),
		},
		// Errors are reported by the caller; never os.Exit from here.
		ExitErrHandler: func(*cli.Context, error) {},
	}
}

func (a *App) before(c *cli.Context) error {
	svc, closer, err := a.newService(c.Context, c.String("server"), c.String("session"), c.Duration("timeout"))
	if err != nil {
		return err
	}
	a.authService, a.closer = svc, closer
	return nil
}

func (a *App) after(*cli.Context) error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}
