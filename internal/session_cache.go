package internal

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// SessionCodeCache maps human-friendly session codes to session ids and
// back.
type SessionCodeCache struct {
	codeToID *lru.Cache
	idToCode *lru.Cache
}

func NewSessionCodeCache() (*SessionCodeCache, error) {
	size := 100000
	codeToID, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to initialize codeToID cache")
	}
	idToCode, err := lru.New(size)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to initialize idToCode cache")
	}
	return &SessionCodeCache{
		codeToID: codeToID,
		idToCode: idToCode,
	}, nil
}

func (c *SessionCodeCache) Add(code string, sessionID string) error {
	if code == "" {
		return fmt.Errorf("Invalid session code [%s]", code)
	} else if sessionID == "" {
		return fmt.Errorf("Invalid session ID [%s]", sessionID)
	}

	c.codeToID.Add(code, sessionID)
	c.idToCode.Add(sessionID, code)
	return nil
}

func (c *SessionCodeCache) CodeToID(code string) (string, bool) {
	v, exists := c.codeToID.Get(code)
	if !exists {
		return "", false
	}
	return v.(string), true
}

func (c *SessionCodeCache) IDToCode(sessionID string) (string, bool) {
	v, exists := c.idToCode.Get(sessionID)
	if !exists {
		return "", false
	}
	return v.(string), true
}
