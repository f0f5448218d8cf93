package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	glog "github.com/goliatone/go-logger/glog"
)

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(call string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) count(call string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, c := range l.calls {
		if c == call {
			total++
		}
	}
	return total
}

func (l *callLog) joined() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return strings.Join(l.calls, ",")
}

type stubStore struct {
	log           *callLog
	connected     bool
	connectErr    error
	disconnectErr error
}

func (s *stubStore) Connect(context.Context) error {
	s.log.add("store.connect")
	if s.connectErr != nil {
		return s.connectErr
	}
	s.connected = true
	return nil
}

func (s *stubStore) Disconnect(context.Context) error {
	s.log.add("store.disconnect")
	s.connected = false
	return s.disconnectErr
}

func (s *stubStore) IsConnected() bool {
	return s.connected
}

type stubLogin struct {
	log      *callLog
	setupErr error
	cleanErr error
	results  []loginResult
	runs     int
}

type loginResult struct {
	credentials Credentials
	err         error
}

func (l *stubLogin) Setup(context.Context) error {
	l.log.add("login.setup")
	return l.setupErr
}

func (l *stubLogin) Clean(context.Context) error {
	l.log.add("login.clean")
	return l.cleanErr
}

func (l *stubLogin) Run(context.Context) (Credentials, error) {
	l.log.add("login.run")
	idx := l.runs
	l.runs++
	if len(l.results) == 0 {
		return Credentials{}, fmt.Errorf("no login result configured")
	}
	if idx >= len(l.results) {
		idx = len(l.results) - 1
	}
	return l.results[idx].credentials, l.results[idx].err
}

type stubRegistry struct {
	log         *callLog
	registerErr error
	inputs      []RegisterAccountInput
	known       map[string]AccountRecord
	authorized  *AccountRecord
	findErr     error
}

func newStubRegistry(log *callLog) *stubRegistry {
	return &stubRegistry{log: log, known: map[string]AccountRecord{}}
}

func (r *stubRegistry) Register(_ context.Context, in RegisterAccountInput) (AccountRecord, error) {
	r.log.add("registry.register")
	r.inputs = append(r.inputs, in)
	if r.registerErr != nil {
		return AccountRecord{}, r.registerErr
	}
	_, exists := r.known[in.Profile.Nickname]
	record := AccountRecord{
		ID:            "acct-" + in.Profile.Nickname,
		Nickname:      in.Profile.Nickname,
		UserID:        in.Profile.UserID,
		IsTestAccount: in.IsTestAccount,
		Authorized:    true,
		Tokens:        in.Tokens,
	}
	r.known[in.Profile.Nickname] = record
	return record.MarkNew(!exists), nil
}

func (r *stubRegistry) FindAnyAuthorized(context.Context) (*AccountRecord, error) {
	r.log.add("registry.find_any_authorized")
	if r.findErr != nil {
		return nil, r.findErr
	}
	return r.authorized, nil
}

func (r *stubRegistry) List(context.Context) ([]AccountRecord, error) {
	out := make([]AccountRecord, 0, len(r.known))
	for _, record := range r.known {
		out = append(out, record)
	}
	return out, nil
}

type ownerResult struct {
	owner OwnerRecord
	err   error
}

type stubOwnerResolver struct {
	log         *callLog
	results     []ownerResult
	calls       int
	invalidated int
}

func (r *stubOwnerResolver) Get(context.Context) (OwnerRecord, error) {
	r.log.add("owner.get")
	idx := r.calls
	r.calls++
	if len(r.results) == 0 {
		return OwnerRecord{}, fmt.Errorf("no owner result configured")
	}
	if idx >= len(r.results) {
		idx = len(r.results) - 1
	}
	return r.results[idx].owner, r.results[idx].err
}

func (r *stubOwnerResolver) Invalidate(context.Context) error {
	r.invalidated++
	return nil
}

type stubProvisioner struct {
	log     *callLog
	account TestAccount
	err     error
	devs    []string
}

func (p *stubProvisioner) Create(_ context.Context, developerNickname string) (TestAccount, error) {
	p.log.add("provisioner.create")
	p.devs = append(p.devs, developerNickname)
	if p.err != nil {
		return TestAccount{}, p.err
	}
	return p.account, nil
}

type recordingNotifier struct {
	infos     []string
	successes []string
	warnings  []string
	errors    []string
}

func (n *recordingNotifier) Info(message string)    { n.infos = append(n.infos, message) }
func (n *recordingNotifier) Success(message string) { n.successes = append(n.successes, message) }
func (n *recordingNotifier) Warn(message string)    { n.warnings = append(n.warnings, message) }
func (n *recordingNotifier) Error(message string)   { n.errors = append(n.errors, message) }

type fixedConfigProvider struct {
	cfg Config
}

func (p *fixedConfigProvider) Load(context.Context, Config) (Config, error) {
	return p.cfg, nil
}

type fixedOptionsResolver struct {
	cfg Config
}

func (r *fixedOptionsResolver) Resolve(Config, Config, Config) (Config, error) {
	return r.cfg, nil
}

type stubLogger struct{}

func (stubLogger) Trace(string, ...any)                    {}
func (stubLogger) Debug(string, ...any)                    {}
func (stubLogger) Info(string, ...any)                     {}
func (stubLogger) Warn(string, ...any)                     {}
func (stubLogger) Error(string, ...any)                    {}
func (stubLogger) Fatal(string, ...any)                    {}
func (stubLogger) WithContext(context.Context) glog.Logger { return stubLogger{} }

type stubLoggerProvider struct {
	logger glog.Logger
}

func (p stubLoggerProvider) GetLogger(string) glog.Logger {
	return p.logger
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Marketplace.ClientID = "app-123"
	cfg.Store.DSN = "file:test?mode=memory&cache=shared"
	return cfg
}

type fixture struct {
	log         *callLog
	store       *stubStore
	login       *stubLogin
	registry    *stubRegistry
	owner       *stubOwnerResolver
	provisioner *stubProvisioner
	notifier    *recordingNotifier
	session     *Session
}

func newFixture(developer string) *fixture {
	log := &callLog{}
	session, err := NewSession(developer)
	if err != nil {
		panic(err)
	}
	return &fixture{
		log:         log,
		store:       &stubStore{log: log},
		login:       &stubLogin{log: log},
		registry:    newStubRegistry(log),
		owner:       &stubOwnerResolver{log: log},
		provisioner: &stubProvisioner{log: log},
		notifier:    &recordingNotifier{},
		session:     session,
	}
}

func (f *fixture) service(opts ...Option) (*Service, error) {
	base := []Option{
		WithOptionsResolver(&fixedOptionsResolver{cfg: testConfig()}),
		WithLogger(stubLogger{}),
		WithNotifier(f.notifier),
		WithSession(f.session),
		WithBackingStore(f.store),
		WithLoginProvider(f.login),
		WithAccountRegistry(f.registry),
		WithOwnerResolver(f.owner),
		WithTestAccountProvisioner(f.provisioner),
	}
	return NewService(Config{}, append(base, opts...)...)
}

func credentialsFor(nickname string) Credentials {
	return Credentials{
		Profile: Profile{UserID: "uid-" + nickname, Nickname: nickname, SiteID: "MLA"},
		Tokens:  TokenPair{AccessToken: "at-" + nickname, RefreshToken: "rt-" + nickname},
	}
}

func ownerFor(nickname string) OwnerRecord {
	return OwnerRecord{
		Account: AccountRecord{ID: "acct-" + nickname, Nickname: nickname, Authorized: true},
		ClientOwnerData: OwnerData{
			ClientID:    "app-123",
			OwnerUserID: "uid-" + nickname,
			Nickname:    nickname,
			SiteID:      "MLA",
			AccountID:   "acct-" + nickname,
		},
	}
}
