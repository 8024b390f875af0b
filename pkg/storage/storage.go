package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ErrFileNotFound 文件不存在错误
var ErrFileNotFound = errors.New("file not found")

// FileInfo 文件元数据结构
type FileInfo struct {
	ID         string    // 文件唯一标识符
	Name       string    // 原始文件名
	Size       int64     // 文件大小(字节)
	MimeType   string    // 文件MIME类型
	Path       string    // 内部存储路径(实现相关)
	UploadedAt time.Time // 上传时间
}

// Storage 文档存储接口
// 保存待分析的输入文档，可以有不同实现(本地文件系统、MinIO等)
type Storage interface {
	// Save 保存文件并返回文件信息
	Save(reader io.Reader, filename string) (FileInfo, error)

	// Get 获取文件内容
	Get(id string) (io.ReadCloser, error)

	// Stat 获取文件元数据
	Stat(id string) (FileInfo, error)

	// Delete 删除文件
	Delete(id string) error

	// List 列出所有文件
	List() ([]FileInfo, error)

	// Exists 检查文件是否存在
	Exists(id string) (bool, error)
}

// Materialize 将存储中的文件复制到本地目录
// 解析器按文件路径和扩展名工作，对象存储中的文档需要先落盘。
// 返回本地文件路径，文件名沿用原始文件名。
func Materialize(s Storage, id string, dir string) (string, error) {
	info, err := s.Stat(id)
	if err != nil {
		return "", err
	}

	reader, err := s.Get(id)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	localPath := filepath.Join(dir, filepath.Base(info.Name))
	file, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create local file: %v", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return "", fmt.Errorf("failed to copy file content: %v", err)
	}

	return localPath, nil
}
