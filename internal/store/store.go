package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"

	"go-library-server/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Store 全库唯一的文档句柄。底层没有事务也没有合并语义，
// 两个并发的"读-改-写"会整篇互相覆盖，所以所有写操作都必须
// 走 Update 这一个串行临界区：复制文档、应用变更、整篇落盘、换指针。
// 回调失败则什么都不发生（内存快照和磁盘都不动）。
type Store struct {
	mu   sync.RWMutex
	path string
	doc  *Document

	hookMu   sync.Mutex
	onCommit []func()
}

// Open 读入 path 上的文档；文件不存在则初始化空库并立即落盘。
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	s := &Store{path: path}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		s.doc = &Document{}
		if err := s.persist(s.doc); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("read store: %w", err)
	default:
		doc := &Document{}
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, fmt.Errorf("parse store %s: %w", path, err)
		}
		s.doc = doc
	}
	return s, nil
}

// View 只读快照。回调里拿到的指针不得带出临界区后修改。
func (s *Store) View(fn func(*Document) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.doc)
}

// Update 读-改-写单元。一次 Update 覆盖的所有实体变更落在同一次写盘里，
// 这是 ledger 保证计数器和租借状态一致的前提。
func (s *Store) Update(fn func(*Document) error) error {
	s.mu.Lock()

	next := s.doc.clone()
	if err := fn(next); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.persist(next); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("write store: %w", err)
	}
	s.doc = next
	s.mu.Unlock()

	s.fireCommit()
	return nil
}

// AfterCommit 注册落盘成功后的回调（缓存失效用）。回调在锁外执行。
func (s *Store) AfterCommit(fn func()) {
	s.hookMu.Lock()
	s.onCommit = append(s.onCommit, fn)
	s.hookMu.Unlock()
}

func (s *Store) fireCommit() {
	s.hookMu.Lock()
	hooks := append([]func(){}, s.onCommit...)
	s.hookMu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

// Stats 各集合规模，libctl stats 用
type Stats struct {
	Users   int
	Books   int
	Rentals int
	Logs    int
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Users:   len(s.doc.Users),
		Books:   len(s.doc.Books),
		Rentals: len(s.doc.Rentals),
		Logs:    len(s.doc.Logs),
	}
}

// persist 临时文件 + rename，旧快照要么完整保留要么完整替换
func (s *Store) persist(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".store-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// clone 集合都是值元素切片，复制切片即复制内容
func (d *Document) clone() *Document {
	return &Document{
		Users:   append([]domain.User(nil), d.Users...),
		Books:   append([]domain.Book(nil), d.Books...),
		Rentals: append([]domain.Rental(nil), d.Rentals...),
		Logs:    append([]domain.LogEntry(nil), d.Logs...),
	}
}
