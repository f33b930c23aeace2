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

// Package aadmac manages the 16 DMA channels of one audio DMA (AADMAC) block.
//
// A Block allocates channels, programs their control registers through a
// regio.Port and reads back their status. Operations taking a Channel mask
// come in two flavors: single target operations act on the lowest valid bit
// of the mask only, broadcast operations (Enable, Disable, ClearChannelFifo)
// act on every valid bit.
package aadmac
