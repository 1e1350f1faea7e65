package session

import (
	"context"
	"fmt"
	"sync"

	"menu-console/internal/infrastructure/config"
	"menu-console/internal/pkg/common"

	"github.com/go-redis/redis/v8"
)

// 管理金鑰在儲存槽中的鍵名
const adminKeySlot = "menu:admin_key"

// KeyStore 操作者管理金鑰的持久化儲存槽。金鑰內容對本系統不透明，
// 只負責存取；redis 停用時退回行程內記憶體槽。
type KeyStore struct {
	client *redis.Client
	mu     sync.RWMutex
	mem    string
}

// NewKeyStore 創建金鑰儲存槽；seed 為啟動設定預載的金鑰（可為空）
func NewKeyStore(cfg *config.KeystoreConfig, seed string) (*KeyStore, error) {
	ks := &KeyStore{mem: seed}

	if !cfg.Enabled {
		return ks, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})

	// 測試連接
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	ks.client = client
	common.LogInfo("金鑰儲存槽已連線")
	return ks, nil
}

// Get 讀取管理金鑰；槽為空時回傳空字串
func (k *KeyStore) Get(ctx context.Context) (string, error) {
	if k.client == nil {
		k.mu.RLock()
		defer k.mu.RUnlock()
		return k.mem, nil
	}

	val, err := k.client.Get(ctx, adminKeySlot).Result()
	if err != nil {
		if err == redis.Nil {
			return "", nil
		}
		return "", fmt.Errorf("failed to get admin key: %w", err)
	}
	return val, nil
}

// Set 寫入管理金鑰
func (k *KeyStore) Set(ctx context.Context, key string) error {
	if k.client == nil {
		k.mu.Lock()
		defer k.mu.Unlock()
		k.mem = key
		return nil
	}

	if err := k.client.Set(ctx, adminKeySlot, key, 0).Err(); err != nil {
		return fmt.Errorf("failed to set admin key: %w", err)
	}
	return nil
}

// Clear 清除管理金鑰
func (k *KeyStore) Clear(ctx context.Context) error {
	if k.client == nil {
		k.mu.Lock()
		defer k.mu.Unlock()
		k.mem = ""
		return nil
	}

	if err := k.client.Del(ctx, adminKeySlot).Err(); err != nil {
		return fmt.Errorf("failed to clear admin key: %w", err)
	}
	return nil
}

// AdminKey 供後端 client 取金鑰用；讀取失敗視為尚未設定
func (k *KeyStore) AdminKey(ctx context.Context) string {
	val, err := k.Get(ctx)
	if err != nil {
		common.LogWarn("讀取管理金鑰失敗，視為尚未設定")
		return ""
	}
	return val
}

// Close 關閉儲存槽連線
func (k *KeyStore) Close() error {
	if k.client != nil {
		return k.client.Close()
	}
	return nil
}
