package auth

import "sync"

// MockStore is an in-memory Store for tests. Setting Err makes every
// call fail with it, the way a locked keychain would.
type MockStore struct {
	mu     sync.Mutex
	tokens map[string]string

	Err error
}

func NewMockStore() *MockStore {
	return &MockStore{tokens: make(map[string]string)}
}

func (m *MockStore) SetToken(account string, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	token, err := cleanToken(token)
	if err != nil {
		return err
	}
	m.tokens[NormalizeAccount(account)] = token
	return nil
}

func (m *MockStore) GetToken(account string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	if token, ok := m.tokens[NormalizeAccount(account)]; ok {
		return token, nil
	}
	return "", ErrTokenNotFound
}

func (m *MockStore) DeleteToken(account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	key := NormalizeAccount(account)
	if _, ok := m.tokens[key]; !ok {
		return ErrTokenNotFound
	}
	delete(m.tokens, key)
	return nil
}
