package main

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"gitee.com/czyczk/medivault-sdk/pkg/errorcode"
	"gitee.com/czyczk/medivault-sdk/pkg/models/data"
	"github.com/google/uuid"
)

var (
	sampleOwner1AsBase64 = base64.StdEncoding.EncodeToString([]byte("owner-1-address"))
	sampleOwner2AsBase64 = base64.StdEncoding.EncodeToString([]byte("owner-2-address"))

	sampleIdentity1 = []byte("identity-material-for-record-1")
	sampleIdentity2 = []byte("identity-material-for-record-2")
)

func getSampleRecordMetadata1() data.RecordMetadata {
	return data.RecordMetadata{
		RecordID:   "record-1",
		Owner:      sampleOwner1AsBase64,
		Identity:   base64.StdEncoding.EncodeToString(sampleIdentity1),
		StorageRef: "QmSampleRef1",
		Hash:       base64.StdEncoding.EncodeToString(make([]byte, 32)),
		Size:       42,
		Extensions: map[string]interface{}{"kind": "diagnosis"},
	}
}

func getSampleRecordMetadata2() data.RecordMetadata {
	return data.RecordMetadata{
		RecordID:   "record-2",
		Owner:      sampleOwner1AsBase64,
		Identity:   base64.StdEncoding.EncodeToString(sampleIdentity2),
		StorageRef: "QmSampleRef2",
		Hash:       base64.StdEncoding.EncodeToString(make([]byte, 32)),
		Size:       233,
		Extensions: map[string]interface{}{"kind": "prescription"},
	}
}

func TestCreateRecordMetadataWithNormalMetadata(t *testing.T) {
	targetFunction := "createRecordMetadata"

	stub := createMockStub(t, "TestCreateRecordMetadataWithNormalMetadata")
	_ = initChaincode(stub, [][]byte{})

	// Prepare the arg
	sampleMetadata1 := getSampleRecordMetadata1()
	recordID := sampleMetadata1.RecordID
	metadataBytes, _ := json.Marshal(sampleMetadata1)

	// Invoke with sampleMetadata1 and expect the response status to be OK
	resp := stub.MockInvoke(uuid.NewString(), [][]byte{[]byte(targetFunction), metadataBytes})
	expectResponseStatusOK(t, &resp)

	// Check if the identity index in State points back to the record ID
	expectStateEqual(t, stub, getKeyForIdentity(sampleMetadata1.Identity), []byte(recordID))

	// Check if the stored metadata can be parsed
	metadataStoredBytes := stub.State[getKeyForRecordMetadata(recordID)]
	metadataStored := data.RecordMetadataStored{}
	if err := json.Unmarshal(metadataStoredBytes, &metadataStored); err != nil {
		testLogger.Infof("Cannot read stored metadata: %v\n", err)
		t.FailNow()
	}

	// Check if the stored metadata is correct
	expectEqual(t, recordID, metadataStored.RecordID)
	expectEqual(t, sampleMetadata1.Owner, metadataStored.Owner)
	expectEqual(t, sampleMetadata1.Identity, metadataStored.Identity)
	expectEqual(t, sampleMetadata1.StorageRef, metadataStored.StorageRef)
	expectEqual(t, sampleMetadata1.Hash, metadataStored.Hash)
	expectEqual(t, sampleMetadata1.Size, metadataStored.Size)

	// Check if the creator is the invoker's public key
	creator, err := getPKDERFromCertString(exampleCertUser1)
	if err != nil {
		testLogger.Infof("Error parsing certificate: %v\n", err)
		t.FailNow()
	}
	expectEqual(t, base64.StdEncoding.EncodeToString(creator), metadataStored.Creator)
}

func TestCreateRecordMetadataWithDuplicateRecordIDs(t *testing.T) {
	targetFunction := "createRecordMetadata"

	stub := createMockStub(t, "TestCreateRecordMetadataWithDuplicateRecordIDs")
	_ = initChaincode(stub, [][]byte{})

	// Prepare the args
	sampleMetadata1 := getSampleRecordMetadata1()
	sampleMetadata2 := getSampleRecordMetadata2()
	// Deliberately change the record ID of metadata2 to be the same as metadata1
	sampleMetadata2.RecordID = sampleMetadata1.RecordID

	metadata1Bytes, _ := json.Marshal(sampleMetadata1)
	metadata2Bytes, _ := json.Marshal(sampleMetadata2)

	// Invoke with metadata1 and expect the response status to be OK
	resp := stub.MockInvoke(uuid.NewString(), [][]byte{[]byte(targetFunction), metadata1Bytes})
	expectResponseStatusOK(t, &resp)

	// Invoke with metadata2 and expect the response status to be ERROR
	resp = stub.MockInvoke(uuid.NewString(), [][]byte{[]byte(targetFunction), metadata2Bytes})
	expectResponseStatusERROR(t, &resp)
}

func TestCreateRecordMetadataWithDuplicateIdentities(t *testing.T) {
	targetFunction := "createRecordMetadata"

	stub := createMockStub(t, "TestCreateRecordMetadataWithDuplicateIdentities")
	_ = initChaincode(stub, [][]byte{})

	// Prepare the args
	sampleMetadata1 := getSampleRecordMetadata1()
	sampleMetadata2 := getSampleRecordMetadata2()
	// Deliberately change the identity of metadata2 to be the same as metadata1
	sampleMetadata2.Identity = sampleMetadata1.Identity

	metadata1Bytes, _ := json.Marshal(sampleMetadata1)
	metadata2Bytes, _ := json.Marshal(sampleMetadata2)

	// Invoke with metadata1 and expect the response status to be OK
	resp := stub.MockInvoke(uuid.NewString(), [][]byte{[]byte(targetFunction), metadata1Bytes})
	expectResponseStatusOK(t, &resp)

	// Invoke with metadata2 and expect the response status to be ERROR
	resp = stub.MockInvoke(uuid.NewString(), [][]byte{[]byte(targetFunction), metadata2Bytes})
	expectResponseStatusERROR(t, &resp)
}

func TestCreateRecordMetadataWithExcessiveParameters(t *testing.T) {
	targetFunction := "createRecordMetadata"

	stub := createMockStub(t, "TestCreateRecordMetadataWithExcessiveParameters")
	_ = initChaincode(stub, [][]byte{})

	// Prepare the arg
	sampleMetadata1 := getSampleRecordMetadata1()
	metadataBytes, _ := json.Marshal(sampleMetadata1)

	// Invoke with excessive parameters and expect the response status to be ERROR
	resp := stub.MockInvoke(uuid.NewString(), [][]byte{[]byte(targetFunction), metadataBytes, []byte("someEventID"), []byte("EXCESSIVE PARAMETER")})
	expectResponseStatusERROR(t, &resp)
}

func TestCreateRecordMetadataIndexStatus(t *testing.T) {
	targetFunction := "createRecordMetadata"

	stub := createMockStub(t, "TestCreateRecordMetadataIndexStatus")
	_ = initChaincode(stub, [][]byte{})

	// Prepare the args
	sampleMetadata1 := getSampleRecordMetadata1()
	sampleMetadata2 := getSampleRecordMetadata2()

	sampleMetadata1Bytes, _ := json.Marshal(sampleMetadata1)
	sampleMetadata2Bytes, _ := json.Marshal(sampleMetadata2)

	// Invoke with metadata1 and expect the response status to be OK
	resp := stub.MockInvoke(uuid.NewString(), [][]byte{[]byte(targetFunction), sampleMetadata1Bytes})
	expectResponseStatusOK(t, &resp)

	// Invoke with metadata2 and expect the response status to be OK
	resp = stub.MockInvoke(uuid.NewString(), [][]byte{[]byte(targetFunction), sampleMetadata2Bytes})
	expectResponseStatusOK(t, &resp)

	// Both record IDs should be reachable from the owner index
	it, err := stub.GetStateByPartialCompositeKey("owner~recordid", []string{sampleOwner1AsBase64})
	if err != nil {
		testLogger.Infof("Cannot query index 'owner~recordid': %v\n", err)
		t.FailNow()
	}

	defer it.Close()

	recordIDs := []string{}
	for it.HasNext() {
		entry, err := it.Next()
		if err != nil {
			testLogger.Infof("Cannot query index 'owner~recordid': %v\n", err)
			t.FailNow()
		}

		_, ckParts, err := stub.SplitCompositeKey(entry.Key)
		if err != nil {
			testLogger.Infof("Cannot query index 'owner~recordid': %v\n", err)
			t.FailNow()
		}

		recordIDs = append(recordIDs, ckParts[1])
	}

	expectEqual(t, []string{sampleMetadata1.RecordID, sampleMetadata2.RecordID}, recordIDs)
}

func TestGetRecordMetadataWithNormalMetadata(t *testing.T) {
	stub := createMockStub(t, "TestGetRecordMetadataWithNormalMetadata")
	_ = initChaincode(stub, [][]byte{})

	// Prepare the state with sampleMetadata1
	sampleMetadata1 := getSampleRecordMetadata1()
	metadataBytes, _ := json.Marshal(sampleMetadata1)

	resp := stub.MockInvoke(uuid.NewString(), [][]byte{[]byte("createRecordMetadata"), metadataBytes})
	expectResponseStatusOK(t, &resp)

	// Invoke getRecordMetadata and expect the response status to be OK
	resp = stub.MockInvoke(uuid.NewString(), [][]byte{[]byte("getRecordMetadata"), []byte(sampleMetadata1.RecordID)})
	expectResponseStatusOK(t, &resp)

	// Check if the returned metadata is correct
	metadataStored := data.RecordMetadataStored{}
	if err := json.Unmarshal(resp.Payload, &metadataStored); err != nil {
		testLogger.Infof("Cannot read returned metadata: %v\n", err)
		t.FailNow()
	}

	expectEqual(t, sampleMetadata1.RecordID, metadataStored.RecordID)
	expectEqual(t, sampleMetadata1.Owner, metadataStored.Owner)
	expectEqual(t, sampleMetadata1.StorageRef, metadataStored.StorageRef)
}

func TestGetRecordMetadataWithNonExistentID(t *testing.T) {
	stub := createMockStub(t, "TestGetRecordMetadataWithNonExistentID")
	_ = initChaincode(stub, [][]byte{})

	// Invoke getRecordMetadata with a non-existent record ID and expect codeNotFound
	resp := stub.MockInvoke(uuid.NewString(), [][]byte{[]byte("getRecordMetadata"), []byte("record-404")})
	expectResponseStatusERROR(t, &resp)
	expectStringEndsWith(t, errorcode.CodeNotFound, resp.Message)
}

func TestGetRecordMetadataByIdentityWithNormalMetadata(t *testing.T) {
	stub := createMockStub(t, "TestGetRecordMetadataByIdentityWithNormalMetadata")
	_ = initChaincode(stub, [][]byte{})

	// Prepare the state with sampleMetadata1
	sampleMetadata1 := getSampleRecordMetadata1()
	metadataBytes, _ := json.Marshal(sampleMetadata1)

	resp := stub.MockInvoke(uuid.NewString(), [][]byte{[]byte("createRecordMetadata"), metadataBytes})
	expectResponseStatusOK(t, &resp)

	// Invoke getRecordMetadataByIdentity and expect the response status to be OK
	resp = stub.MockInvoke(uuid.NewString(), [][]byte{[]byte("getRecordMetadataByIdentity"), []byte(sampleMetadata1.Identity)})
	expectResponseStatusOK(t, &resp)

	// Check if the returned metadata resolves to the correct record
	metadataStored := data.RecordMetadataStored{}
	if err := json.Unmarshal(resp.Payload, &metadataStored); err != nil {
		testLogger.Infof("Cannot read returned metadata: %v\n", err)
		t.FailNow()
	}

	expectEqual(t, sampleMetadata1.RecordID, metadataStored.RecordID)
	expectEqual(t, sampleMetadata1.Identity, metadataStored.Identity)
}

func TestGetRecordMetadataByIdentityWithNonExistentIdentity(t *testing.T) {
	stub := createMockStub(t, "TestGetRecordMetadataByIdentityWithNonExistentIdentity")
	_ = initChaincode(stub, [][]byte{})

	// Invoke with an unregistered identity and expect codeNotFound
	identityAsBase64 := base64.StdEncoding.EncodeToString([]byte("identity-never-registered"))
	resp := stub.MockInvoke(uuid.NewString(), [][]byte{[]byte("getRecordMetadataByIdentity"), []byte(identityAsBase64)})
	expectResponseStatusERROR(t, &resp)
	expectStringEndsWith(t, errorcode.CodeNotFound, resp.Message)
}
