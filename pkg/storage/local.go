package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalStorage 本地文件存储实现
// 文件平铺在基础目录下，命名为<id><ext>，
// 原始文件名记录在同名的.meta元数据文件中
type LocalStorage struct {
	basePath string // 基础存储路径
}

// LocalConfig 本地存储配置
type LocalConfig struct {
	Path string // 本地存储路径
}

// fileMeta 落盘的文件元数据
type fileMeta struct {
	Name       string    `json:"name"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// NewLocalStorage 创建本地存储实例
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %v", err)
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %v", err)
	}

	return &LocalStorage{
		basePath: absPath,
	}, nil
}

// Save 保存文件到本地存储
func (s *LocalStorage) Save(reader io.Reader, filename string) (FileInfo, error) {
	id := uuid.New().String()
	ext := filepath.Ext(filename)
	filePath := filepath.Join(s.basePath, id+ext)

	file, err := os.Create(filePath)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to create file: %v", err)
	}
	defer file.Close()

	size, err := io.Copy(file, reader)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to write file: %v", err)
	}

	now := time.Now()
	if err := s.writeMeta(id, fileMeta{Name: filename, UploadedAt: now}); err != nil {
		return FileInfo{}, err
	}

	return FileInfo{
		ID:         id,
		Name:       filename,
		Size:       size,
		MimeType:   getMimeType(filename),
		Path:       id + ext,
		UploadedAt: now,
	}, nil
}

// Get 获取文件内容
func (s *LocalStorage) Get(id string) (io.ReadCloser, error) {
	filePath, err := s.findFileByID(id)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %v", err)
	}

	return file, nil
}

// Stat 获取文件元数据
func (s *LocalStorage) Stat(id string) (FileInfo, error) {
	filePath, err := s.findFileByID(id)
	if err != nil {
		return FileInfo{}, err
	}

	stat, err := os.Stat(filePath)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to stat file: %v", err)
	}

	meta := s.readMeta(id, filepath.Base(filePath))

	return FileInfo{
		ID:         id,
		Name:       meta.Name,
		Size:       stat.Size(),
		MimeType:   getMimeType(meta.Name),
		Path:       filepath.Base(filePath),
		UploadedAt: meta.UploadedAt,
	}, nil
}

// Delete 删除文件及其元数据
func (s *LocalStorage) Delete(id string) error {
	filePath, err := s.findFileByID(id)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %v", err)
	}

	// 元数据文件可能不存在，忽略删除错误
	_ = os.Remove(s.metaPath(id))

	return nil
}

// List 列出所有文件
func (s *LocalStorage) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %v", err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || strings.HasSuffix(entry.Name(), metaSuffix) {
			continue
		}

		stat, err := entry.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat file: %v", err)
		}

		id := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		meta := s.readMeta(id, entry.Name())

		files = append(files, FileInfo{
			ID:         id,
			Name:       meta.Name,
			Size:       stat.Size(),
			MimeType:   getMimeType(meta.Name),
			Path:       entry.Name(),
			UploadedAt: meta.UploadedAt,
		})
	}

	return files, nil
}

// Exists 检查文件是否存在
func (s *LocalStorage) Exists(id string) (bool, error) {
	_, err := s.findFileByID(id)
	if err != nil {
		if err == ErrFileNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

const metaSuffix = ".meta"

// metaPath 元数据文件路径
func (s *LocalStorage) metaPath(id string) string {
	return filepath.Join(s.basePath, id+metaSuffix)
}

// writeMeta 写入文件元数据
func (s *LocalStorage) writeMeta(id string, meta fileMeta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal file metadata: %v", err)
	}
	if err := os.WriteFile(s.metaPath(id), data, 0644); err != nil {
		return fmt.Errorf("failed to write file metadata: %v", err)
	}
	return nil
}

// readMeta 读取文件元数据，缺失时以存储文件名兜底
func (s *LocalStorage) readMeta(id string, storedName string) fileMeta {
	data, err := os.ReadFile(s.metaPath(id))
	if err != nil {
		return fileMeta{Name: storedName}
	}

	var meta fileMeta
	if err := json.Unmarshal(data, &meta); err != nil || meta.Name == "" {
		return fileMeta{Name: storedName}
	}
	return meta
}

// findFileByID 根据ID查找文件路径
func (s *LocalStorage) findFileByID(id string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(s.basePath, id+".*"))
	if err != nil {
		return "", fmt.Errorf("error searching for file: %v", err)
	}

	for _, match := range matches {
		if strings.HasSuffix(match, metaSuffix) {
			continue
		}
		return match, nil
	}

	// 无扩展名保存的文件
	plain := filepath.Join(s.basePath, id)
	if _, err := os.Stat(plain); err == nil {
		return plain, nil
	}

	return "", ErrFileNotFound
}

// getMimeType 根据文件扩展名判断MIME类型
func getMimeType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))

	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
