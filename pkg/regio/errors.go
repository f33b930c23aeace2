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

import "fmt"

type ErrTimeout struct {
	Seq uint16
}

func (e ErrTimeout) Error() string {
	return fmt.Sprintf("Timeout while waiting for response seq: %d", e.Seq)
}

type ErrUnexpectedFrame struct {
	What string
}

func (e ErrUnexpectedFrame) Error() string {
	return fmt.Sprintf("Unexpected frame: %s", e.What)
}

type ErrUnaligned struct {
	Addr uint32
}

func (e ErrUnaligned) Error() string {
	return fmt.Sprintf("Register address is not word aligned: 0x%08x", e.Addr)
}
