package dto

import "github.com/punjabready/portal-api/pkg/storage"

type FileEnvelope struct {
	File *storage.FileDescriptor `json:"file"`
}

type FilesEnvelope struct {
	Files []*storage.FileDescriptor `json:"files"`
}
