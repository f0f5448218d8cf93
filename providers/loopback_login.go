package providers

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-marketplace-accounts/core"
	"github.com/goliatone/go-marketplace-accounts/identity"
	"golang.org/x/oauth2"
)

const (
	defaultLoginTimeout       = 5 * time.Minute
	callbackReadHeaderTimeout = 10 * time.Second
)

var (
	ErrLoginNotReady   = errors.New("providers: login provider is not set up")
	ErrLoginTimeout    = errors.New("providers: timed out waiting for the authorization callback")
	ErrLoginDenied     = errors.New("providers: authorization was denied")
	ErrCallbackMissing = errors.New("providers: authorization code is missing")
)

// BrowserOpener shows authURL to the user. Failing to open it is not fatal;
// the URL is printed either way.
type BrowserOpener func(authURL string) error

type LoopbackLoginConfig struct {
	Marketplace core.MarketplaceConfig
	Login       core.LoginConfig
	Profiles    identity.ProfileResolver
	States      core.LoginStateStore
	Notifier    core.Notifier
	Logger      core.Logger
	OpenBrowser BrowserOpener
	HTTPClient  *http.Client
}

type callbackResult struct {
	code   string
	record core.LoginStateRecord
	err    error
}

// LoopbackLogin runs the marketplace authorization code flow. Setup binds
// the callback listener, Run drives one login and Clean releases the
// listener.
type LoopbackLogin struct {
	cfg       LoopbackLoginConfig
	timeout   time.Duration
	callbacks chan callbackResult

	mu          sync.Mutex
	listener    net.Listener
	server      *http.Server
	oauth       *oauth2.Config
	redirectURI string
}

func NewLoopbackLogin(cfg LoopbackLoginConfig) (*LoopbackLogin, error) {
	if cfg.Profiles == nil {
		return nil, fmt.Errorf("providers: profile resolver is required")
	}
	if strings.TrimSpace(cfg.Login.CallbackAddr) == "" {
		return nil, fmt.Errorf("providers: callback address is required")
	}
	if _, err := NewOAuth2Config(cfg.Marketplace, cfg.Login.RedirectURI()); err != nil {
		return nil, err
	}
	if cfg.States == nil {
		cfg.States = core.NewMemoryLoginStateStore(0)
	}
	if cfg.Notifier == nil {
		cfg.Notifier = core.NopNotifier{}
	}
	timeout := cfg.Login.Timeout
	if timeout <= 0 {
		timeout = defaultLoginTimeout
	}
	return &LoopbackLogin{
		cfg:       cfg,
		timeout:   timeout,
		callbacks: make(chan callbackResult, 1),
	}, nil
}

func (l *LoopbackLogin) Setup(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.listener != nil {
		return nil
	}

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", strings.TrimSpace(l.cfg.Login.CallbackAddr))
	if err != nil {
		return fmt.Errorf("providers: listen on %s: %w", l.cfg.Login.CallbackAddr, err)
	}

	// The bound address wins over the configured one so port 0 works.
	loginCfg := l.cfg.Login
	loginCfg.CallbackAddr = listener.Addr().String()
	redirectURI := loginCfg.RedirectURI()
	oauthCfg, err := NewOAuth2Config(l.cfg.Marketplace, redirectURI)
	if err != nil {
		_ = listener.Close()
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath(l.cfg.Login), l.handleCallback)
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: callbackReadHeaderTimeout,
	}

	l.listener = listener
	l.server = server
	l.oauth = oauthCfg
	l.redirectURI = redirectURI

	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			l.logError("login callback server stopped", serveErr)
		}
	}()
	return nil
}

func (l *LoopbackLogin) Clean(ctx context.Context) error {
	l.mu.Lock()
	server := l.server
	l.server = nil
	l.listener = nil
	l.oauth = nil
	l.mu.Unlock()

	if resetter, ok := l.cfg.States.(interface{ Reset() }); ok {
		resetter.Reset()
	}
	l.drainCallbacks()
	if server == nil {
		return nil
	}
	if err := server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("providers: stop callback server: %w", err)
	}
	return nil
}

// RedirectURI returns the callback URL once Setup bound the listener.
func (l *LoopbackLogin) RedirectURI() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.redirectURI
}

func (l *LoopbackLogin) Run(ctx context.Context) (core.Credentials, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	l.mu.Lock()
	oauthCfg := l.oauth
	redirectURI := l.redirectURI
	l.mu.Unlock()
	if oauthCfg == nil {
		return core.Credentials{}, ErrLoginNotReady
	}
	l.drainCallbacks()

	state, err := core.GenerateLoginState()
	if err != nil {
		return core.Credentials{}, err
	}
	verifier := oauth2.GenerateVerifier()
	if err := l.cfg.States.Save(ctx, core.LoginStateRecord{
		State:        state,
		RedirectURI:  redirectURI,
		CodeVerifier: verifier,
	}); err != nil {
		return core.Credentials{}, err
	}

	authURL := oauthCfg.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	l.cfg.Notifier.Info("Open the following URL in your browser to log in:\n" + authURL)
	if l.cfg.OpenBrowser != nil {
		if openErr := l.cfg.OpenBrowser(authURL); openErr != nil {
			l.cfg.Notifier.Warn(fmt.Sprintf("Could not open the browser automatically: %v", openErr))
		}
	}

	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	var result callbackResult
	select {
	case <-ctx.Done():
		return core.Credentials{}, ctx.Err()
	case <-timer.C:
		return core.Credentials{}, ErrLoginTimeout
	case result = <-l.callbacks:
	}
	if result.err != nil {
		return core.Credentials{}, result.err
	}

	token, err := oauthCfg.Exchange(
		withHTTPClient(ctx, l.cfg.HTTPClient),
		result.code,
		oauth2.VerifierOption(result.record.CodeVerifier),
	)
	if err != nil {
		return core.Credentials{}, describeTokenError(err)
	}
	tokens := TokenPairFromOAuth2(token)
	if err := tokens.Validate(); err != nil {
		return core.Credentials{}, err
	}

	profile, err := l.cfg.Profiles.Resolve(ctx, tokens.AccessToken)
	if err != nil {
		return core.Credentials{}, err
	}
	return core.Credentials{Profile: profile, Tokens: tokens}, nil
}

// handleCallback only answers for the login in flight: a callback whose
// state matches no pending login is refused without touching Run, so a stray
// or forged request cannot end it.
func (l *LoopbackLogin) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	record, err := l.cfg.States.Consume(r.Context(), query.Get("state"))
	if err != nil {
		l.logWarn("ignored login callback", err)
		writeCallbackPage(w, http.StatusBadRequest, "This login link is no longer valid. Start the login again from the terminal.")
		return
	}

	if denied := strings.TrimSpace(query.Get("error")); denied != "" {
		reason := strings.TrimSpace(query.Get("error_description"))
		if reason == "" {
			reason = denied
		}
		l.deliver(callbackResult{err: fmt.Errorf("%w: %s", ErrLoginDenied, reason)})
		writeCallbackPage(w, http.StatusForbidden, "Authorization was denied. You can close this window.")
		return
	}

	code := strings.TrimSpace(query.Get("code"))
	if code == "" {
		l.deliver(callbackResult{err: ErrCallbackMissing})
		writeCallbackPage(w, http.StatusBadRequest, "The authorization code is missing.")
		return
	}

	l.deliver(callbackResult{code: code, record: record})
	writeCallbackPage(w, http.StatusOK, "Login completed. You can close this window and return to the terminal.")
}

func (l *LoopbackLogin) deliver(result callbackResult) {
	select {
	case l.callbacks <- result:
	default:
	}
}

func (l *LoopbackLogin) drainCallbacks() {
	for {
		select {
		case <-l.callbacks:
		default:
			return
		}
	}
}

func (l *LoopbackLogin) logError(message string, err error) {
	if l.cfg.Logger == nil {
		return
	}
	l.cfg.Logger.Error(message, "error", err.Error())
}

func (l *LoopbackLogin) logWarn(message string, err error) {
	if l.cfg.Logger == nil {
		return
	}
	l.cfg.Logger.Warn(message, "error", err.Error())
}

func callbackPath(cfg core.LoginConfig) string {
	path := strings.TrimSpace(cfg.CallbackPath)
	if path == "" {
		return "/callback"
	}
	if !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}

func writeCallbackPage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, "<!doctype html><html><body><p>%s</p></body></html>", html.EscapeString(message))
}
