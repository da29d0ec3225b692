// Package core 提供 keyPath 通配符匹配逻辑
package core

import (
	"strings"
	"sync"

	"github.com/rotisserie/eris"
)

// maxTrieDepth 最大 Trie 深度（超过则拒绝 Add / Remove）
const maxTrieDepth = 16

// ErrPatternTooDeep keyPath 段数超过 maxTrieDepth
var ErrPatternTooDeep = eris.New("core: key path too deep")

// KeyMatcher 基于 Trie 树的 keyPath 匹配器
// 支持 message.* (单层通配)、message.** (多层通配) 以及 message.current (精确)
type KeyMatcher struct {
	mu   sync.RWMutex
	root *node

	// 精确匹配快速路径（keyPath → 引用计数）
	exact map[string]int
}

type node struct {
	children map[string]*node
	pattern  string
	refCount int32
	isEnd    bool
}

// NewKeyMatcher 创建匹配器
func NewKeyMatcher() *KeyMatcher {
	return &KeyMatcher{
		root:  newNode(),
		exact: make(map[string]int),
	}
}

func newNode() *node {
	return &node{children: make(map[string]*node, 4)}
}

func hasWildcard(s string) bool {
	return strings.IndexByte(s, '*') >= 0
}

// Add 添加模式到 Trie（同一模式可重复添加，引用计数）
func (t *KeyMatcher) Add(pattern string) error {
	parts := strings.Split(pattern, ".")
	if len(parts) > maxTrieDepth {
		return eris.Wrapf(ErrPatternTooDeep, "%d segments", len(parts))
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.root
	for _, part := range parts {
		child, ok := n.children[part]
		if !ok {
			child = newNode()
			n.children[part] = child
		}
		n = child
	}
	n.isEnd = true
	n.pattern = pattern
	n.refCount++

	if !hasWildcard(pattern) {
		t.exact[pattern]++
	}
	return nil
}

// Remove 移除模式（引用计数归零后自底向上清理空节点）
func (t *KeyMatcher) Remove(pattern string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	parts := strings.Split(pattern, ".")
	if len(parts) > maxTrieDepth {
		return
	}

	var path [maxTrieDepth + 1]*node
	path[0] = t.root
	n := t.root
	for i, part := range parts {
		next, ok := n.children[part]
		if !ok {
			return
		}
		path[i+1] = next
		n = next
	}
	if !n.isEnd {
		return
	}

	if !hasWildcard(pattern) {
		if t.exact[pattern]--; t.exact[pattern] <= 0 {
			delete(t.exact, pattern)
		}
	}

	n.refCount--
	if n.refCount > 0 {
		return
	}
	n.refCount = 0
	n.isEnd = false
	n.pattern = ""

	for i := len(parts) - 1; i >= 0; i-- {
		child := path[i+1]
		if child.isEnd || len(child.children) > 0 {
			break
		}
		delete(path[i].children, parts[i])
	}
}

// Match 返回匹配 keyPath 的全部模式
func (t *KeyMatcher) Match(keyPath string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var results []string
	t.matchRecursive(t.root, strings.Split(keyPath, "."), 0, &results)
	return results
}

func (t *KeyMatcher) matchRecursive(n *node, parts []string, depth int, results *[]string) {
	if depth == len(parts) {
		if n.isEnd {
			*results = append(*results, n.pattern)
		}
		return
	}

	part := parts[depth]

	// 精确
	if child, ok := n.children[part]; ok {
		t.matchRecursive(child, parts, depth+1, results)
	}

	// 单层通配符 "*"
	if child, ok := n.children["*"]; ok {
		t.matchRecursive(child, parts, depth+1, results)
	}

	// 多层通配符 "**"：吞掉剩余全部段
	if child, ok := n.children["**"]; ok && child.isEnd {
		*results = append(*results, child.pattern)
	}
}

// HasMatch 检查是否存在匹配
func (t *KeyMatcher) HasMatch(keyPath string) bool {
	t.mu.RLock()
	_, ok := t.exact[keyPath]
	t.mu.RUnlock()
	if ok {
		return true
	}
	return len(t.Match(keyPath)) > 0
}
