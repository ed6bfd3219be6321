package infra

import (
	"context"
	"errors"
	"fmt"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/Wasion-it/fork-controle-material/internal/config"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
)

// Directory roles resolved from group membership.
const (
	DirectoryRoleAdmin = "admin"
	DirectoryRoleUser  = "user"
)

var (
	// ErrDirectoryDisabled: the client was constructed in disabled state
	// (LDAP_ENABLED=false or an unusable URL). Callers fall back to local auth.
	ErrDirectoryDisabled = errors.New("directory client disabled")

	// ErrDirectoryAuth: the directory was reached and refused the credentials.
	ErrDirectoryAuth = errors.New("directory rejected credentials")
)

// ldapURLPattern accepts ldap://host[:port] and ldaps://host[:port].
var ldapURLPattern = regexp.MustCompile(`^ldaps?://[^\s:/]+(:\d+)?$`)

// DirectoryUser is a directory entry resolved during authentication.
type DirectoryUser struct {
	DN       string
	Username string
	Name     string
	Email    string
	Role     string
}

// LDAPClient authenticates against a corporate directory. It is constructed
// once at startup and injected where needed; when disabled it carries an
// explicit capability flag instead of being nil. Directory calls run through
// a circuit breaker so an unreachable domain controller fails fast instead of
// stalling every login for the full connect timeout.
type LDAPClient struct {
	cfg      *config.Config
	cb       *CircuitBreaker
	disabled bool
}

func NewLDAPClient(cfg *config.Config, cb *CircuitBreaker) *LDAPClient {
	c := &LDAPClient{cfg: cfg, cb: cb}
	if !cfg.LDAPEnabled {
		c.disabled = true
		return c
	}
	if !ldapURLPattern.MatchString(cfg.LDAPURL) {
		log.Warn().Str("url", cfg.LDAPURL).Msg("ldap: unusable URL, disabling directory client")
		c.disabled = true
	}
	return c
}

// Enabled reports whether directory authentication can currently be attempted.
func (c *LDAPClient) Enabled() bool {
	return !c.disabled && c.cb.State() != CBOpen
}

// State exposes the breaker state for the health endpoint.
func (c *LDAPClient) State() string {
	if c.disabled {
		return "disabled"
	}
	return c.cb.State().String()
}

// Authenticate performs the usual bind-and-search dance: bind with the
// service account, locate the user's DN, then re-bind with the user's own
// credentials. Admin role derives from memberOf containing the configured
// group substring.
func (c *LDAPClient) Authenticate(ctx context.Context, username, password string) (*DirectoryUser, error) {
	if c.disabled {
		return nil, ErrDirectoryDisabled
	}
	if username == "" || strings.TrimSpace(password) == "" {
		return nil, ErrDirectoryAuth
	}

	// Credential rejections are captured outside the breaker callback: the
	// directory answered, so they must not count as infrastructure failures.
	var user *DirectoryUser
	var authErr error
	err := c.cb.Execute(func() error {
		conn, err := ldap.DialURL(c.cfg.LDAPURL, ldap.DialWithDialer(&net.Dialer{Timeout: 5 * time.Second}))
		if err != nil {
			return fmt.Errorf("ldap dial: %w", err)
		}
		defer conn.Close()

		if deadline, ok := ctx.Deadline(); ok {
			conn.SetTimeout(time.Until(deadline))
		}

		if err := conn.Bind(c.cfg.LDAPBindDN, c.cfg.LDAPBindPassword); err != nil {
			return fmt.Errorf("ldap service bind: %w", err)
		}

		entry, err := c.searchUser(conn, username)
		if err != nil {
			if errors.Is(err, ErrDirectoryAuth) {
				authErr = err
				return nil
			}
			return err
		}

		// Re-bind as the user — this is the actual credential check.
		if err := conn.Bind(entry.DN, password); err != nil {
			authErr = fmt.Errorf("%w: user bind failed", ErrDirectoryAuth)
			return nil
		}

		name := entry.GetAttributeValue("displayName")
		if name == "" {
			name = entry.GetAttributeValue("cn")
		}
		user = &DirectoryUser{
			DN:       entry.DN,
			Username: username,
			Name:     name,
			Email:    entry.GetAttributeValue("mail"),
			Role:     c.resolveRole(entry.GetAttributeValues("memberOf")),
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return nil, fmt.Errorf("%w: %v", ErrDirectoryDisabled, err)
		}
		return nil, err
	}
	if authErr != nil {
		return nil, authErr
	}

	log.Debug().Str("dn", user.DN).Str("role", user.Role).Msg("ldap: authenticated")
	return user, nil
}

func (c *LDAPClient) searchUser(conn *ldap.Conn, username string) (*ldap.Entry, error) {
	filter := strings.ReplaceAll(c.cfg.LDAPUserFilter, "{username}", ldap.EscapeFilter(username))
	req := ldap.NewSearchRequest(
		c.cfg.LDAPBaseDN,
		ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 2, 0, false,
		filter,
		[]string{"dn", "mail", "cn", "displayName", "memberOf"},
		nil,
	)
	res, err := conn.Search(req)
	if err != nil {
		return nil, fmt.Errorf("ldap search: %w", err)
	}
	if len(res.Entries) != 1 {
		return nil, fmt.Errorf("%w: user not found", ErrDirectoryAuth)
	}
	return res.Entries[0], nil
}

func (c *LDAPClient) resolveRole(groups []string) string {
	needle := strings.ToLower(c.cfg.LDAPAdminGroup)
	for _, g := range groups {
		if strings.Contains(strings.ToLower(g), needle) {
			return DirectoryRoleAdmin
		}
	}
	return DirectoryRoleUser
}
