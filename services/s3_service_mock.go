package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// MockS3Service is an in-memory S3Interface for tests
type MockS3Service struct {
	objects map[string]mockObject
	mu      sync.RWMutex

	// FailPuts makes every PutObject call fail
	FailPuts bool
	// FailPresign makes every GetPresignedURL call fail
	FailPresign bool
}

type mockObject struct {
	body        []byte
	contentType string
}

// NewMockS3Service creates a new mock S3 service
func NewMockS3Service() *MockS3Service {
	return &MockS3Service{objects: make(map[string]mockObject)}
}

// SetAsMockForTesting sets this mock as the global S3 service instance for testing
func (m *MockS3Service) SetAsMockForTesting() {
	SetS3Service(m)
}

func (m *MockS3Service) PutObject(ctx context.Context, key string, body []byte, contentType string) error {
	if m.FailPuts {
		return errors.New("mock S3 upload failure")
	}

	stored := make([]byte, len(body))
	copy(stored, body)

	m.mu.Lock()
	m.objects[key] = mockObject{body: stored, contentType: contentType}
	m.mu.Unlock()
	return nil
}

func (m *MockS3Service) GetPresignedURL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", nil
	}
	if m.FailPresign {
		return "", errors.New("mock S3 presign failure")
	}

	m.mu.RLock()
	_, exists := m.objects[key]
	m.mu.RUnlock()
	if !exists {
		return "", fmt.Errorf("object not found in mock S3: %s", key)
	}

	return fmt.Sprintf("https://test-bucket.s3.us-east-1.amazonaws.com/%s?mock=true", key), nil
}

func (m *MockS3Service) DeleteObject(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Object returns the stored body and content type (for testing assertions)
func (m *MockS3Service) Object(key string) ([]byte, string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj.body, obj.contentType, ok
}

// Keys returns every stored key
func (m *MockS3Service) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}

// Clear removes all objects from mock storage
func (m *MockS3Service) Clear() {
	m.mu.Lock()
	m.objects = make(map[string]mockObject)
	m.mu.Unlock()
}
