// Package cache — внутрипроцессный TTL-кэш для дорогих чтений
// (игроки, рейтинг, турниры). Экземпляр создаётся один раз и передаётся
// по ссылке, скрытого глобального состояния нет.
//
// Кэш локален для одного процесса: при нескольких инстансах чтения не
// когерентны между ними в пределах TTL.
package cache

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const DefaultTTL = 15 * time.Second

type entry struct {
	storedAt time.Time
	value    interface{}
}

type Cache struct {
	ttl   time.Duration
	group singleflight.Group

	mu      sync.RWMutex
	entries map[string]entry
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]entry),
	}
}

// Get возвращает значение по ключу в пределах TTL, иначе вызывает
// loader. Одновременные промахи по одному ключу делят один вызов
// loader (защита от dogpile); при ошибке loader ничего не сохраняется.
func (c *Cache) Get(key string, loader func() (interface{}, error)) (interface{}, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && time.Since(e.storedAt) < c.ttl {
		return e.value, nil
	}

	value, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Пока мы ждали очередь singleflight, значение мог положить
		// предыдущий вызов.
		c.mu.RLock()
		e, ok := c.entries[key]
		c.mu.RUnlock()
		if ok && time.Since(e.storedAt) < c.ttl {
			return e.value, nil
		}

		loaded, loadErr := loader()
		if loadErr != nil {
			return nil, loadErr
		}
		c.mu.Lock()
		c.entries[key] = entry{storedAt: time.Now(), value: loaded}
		c.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Invalidate выбрасывает ключ. Пути записи обязаны звать его после
// мутаций, иначе читатели видят устаревшие данные до истечения TTL.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	c.mu.Unlock()
}

// Clear сбрасывает весь кэш.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	c.mu.Unlock()
}
