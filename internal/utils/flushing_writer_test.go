package utils_test

import (
	"bufio"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/dbmigrator/internal/utils"
)

func TestFlushingWriterFlushesBufferedWriters(testInstance *testing.T) {
	var destination bytes.Buffer
	bufferedWriter := bufio.NewWriter(&destination)

	writer := utils.NewFlushingWriter(bufferedWriter)
	bytesWritten, writeError := writer.Write([]byte("Fetched 1 and Migrated 1 of 1"))

	require.NoError(testInstance, writeError)
	require.Equal(testInstance, 29, bytesWritten)
	require.Equal(testInstance, "Fetched 1 and Migrated 1 of 1", destination.String())
}

func TestFlushingWriterWrapping(testInstance *testing.T) {
	require.Equal(testInstance, io.Discard, utils.NewFlushingWriter(nil))

	wrapped := utils.NewFlushingWriter(&bytes.Buffer{})
	require.Same(testInstance, wrapped, utils.NewFlushingWriter(wrapped))
}
