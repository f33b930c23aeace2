/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package regio

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"

	"jinr.ru/greenlab/go-aadmac/pkg/log"
)

const (
	BucketNamePrefix = "reg_"
)

// Bolt keeps a register window in a bbolt database.
// Every block gets its own bucket, registers never written read 0.
type Bolt struct {
	DB     *bbolt.DB
	bucket []byte
}

var _ Port = &Bolt{}

// NewBolt opens the register database at path and creates the bucket for the block
func NewBolt(path, blockName string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}
	bucket := []byte(bucketName(blockName))
	if err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{
		DB:     db,
		bucket: bucket,
	}, nil
}

func bucketName(blockName string) string {
	return fmt.Sprintf("%s%s", BucketNamePrefix, blockName)
}

func uint32ToByte(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// Close ...
func (s *Bolt) Close() error {
	return s.DB.Close()
}

// Read ...
func (s *Bolt) Read(base, offset uint32) (uint32, error) {
	var value uint32
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return fmt.Errorf("bucket not found: %s", s.bucket)
		}
		valueBytes := b.Get(uint32ToByte(base + offset))
		if valueBytes != nil {
			value = binary.BigEndian.Uint32(valueBytes)
		}
		return nil
	}); err != nil {
		return 0, err
	}
	return value, nil
}

// Write ...
func (s *Bolt) Write(base, offset, value uint32) error {
	log.Debug("Storing register: Addr: %08x Value: %08x", base+offset, value)
	return s.DB.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return fmt.Errorf("bucket not found: %s", s.bucket)
		}
		return b.Put(uint32ToByte(base+offset), uint32ToByte(value))
	})
}
