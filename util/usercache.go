package util

import (
	"container/list"
	"os"
	"strconv"
	"sync"

	"gorm.io/gorm"
)

// Bounded LRU of userID -> email, used by the security logger to annotate
// events without a DB round trip per request.
type userEntry struct {
	userID uint
	email  string
}

type userLRU struct {
	mu    sync.Mutex
	order *list.List
	byID  map[uint]*list.Element
	max   int
}

var userCache *userLRU

func (l *userLRU) get(userID uint) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ele, ok := l.byID[userID]
	if !ok {
		return "", false
	}
	l.order.MoveToFront(ele)
	return ele.Value.(userEntry).email, true
}

func (l *userLRU) set(userID uint, email string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if ele, ok := l.byID[userID]; ok {
		l.order.MoveToFront(ele)
		ele.Value = userEntry{userID: userID, email: email}
		return
	}
	l.byID[userID] = l.order.PushFront(userEntry{userID: userID, email: email})
	if l.order.Len() > l.max {
		tail := l.order.Back()
		delete(l.byID, tail.Value.(userEntry).userID)
		l.order.Remove(tail)
	}
}

// InitUserEmailCache initializes the cache with the given capacity.
// Capacity <= 0 selects the default of 1000 entries.
func InitUserEmailCache(capacity int) {
	if capacity <= 0 {
		capacity = 1000
	}
	userCache = &userLRU{
		order: list.New(),
		byID:  make(map[uint]*list.Element),
		max:   capacity,
	}
}

// UserEmailCacheGet returns the cached email for userID, if present.
func UserEmailCacheGet(userID uint) (string, bool) {
	if userCache == nil {
		return "", false
	}
	return userCache.get(userID)
}

// UserEmailCacheSet stores the email for userID, evicting the least recently
// used entry when full.
func UserEmailCacheSet(userID uint, email string) {
	if userCache == nil {
		return
	}
	userCache.set(userID, email)
}

// GetUserEmail resolves a user's email through the cache, falling back to the
// database and caching the result.
func GetUserEmail(db *gorm.DB, userID uint) string {
	if userID == 0 {
		return ""
	}
	if email, ok := UserEmailCacheGet(userID); ok {
		return email
	}
	if db == nil {
		return ""
	}
	var u struct{ Email string }
	if err := db.Table("users").Select("email").Where("id = ?", userID).Take(&u).Error; err != nil {
		return ""
	}
	if u.Email != "" {
		UserEmailCacheSet(userID, u.Email)
	}
	return u.Email
}

// InitUserEmailCacheFromEnv sizes the cache from USER_EMAIL_CACHE_SIZE.
func InitUserEmailCacheFromEnv() {
	n, err := strconv.Atoi(os.Getenv("USER_EMAIL_CACHE_SIZE"))
	if err != nil {
		n = 0
	}
	InitUserEmailCache(n)
}
